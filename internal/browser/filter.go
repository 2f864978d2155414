package browser

import (
	"strings"

	serr "xpick/internal/errors"

	"github.com/gobwas/glob"
)

// Filter matches base names against space-separated wildcard tokens.
// A name passes when any token matches it in full, ignoring case. Only
// '*' (any run of characters) and '?' (exactly one character) are special.
type Filter struct {
	text     string
	matchers []glob.Glob
}

// CompileFilter parses filter text. Blank text yields a filter that accepts
// every name.
func CompileFilter(text string) (*Filter, error) {
	f := &Filter{text: text}
	for _, token := range strings.Fields(text) {
		g, err := glob.Compile(escapeToken(strings.ToLower(token)))
		if err != nil {
			return nil, serr.Wrapf(err, "invalid filter token %q", token)
		}
		f.matchers = append(f.matchers, g)
	}
	return f, nil
}

// Text returns the text the filter was compiled from
func (f *Filter) Text() string {
	return f.text
}

// Empty reports whether the filter has no tokens
func (f *Filter) Empty() bool {
	return len(f.matchers) == 0
}

// Match reports whether name passes the filter
func (f *Filter) Match(name string) bool {
	if f.Empty() {
		return true
	}
	name = strings.ToLower(name)
	for _, g := range f.matchers {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// escapeToken quotes every glob metacharacter except '*' and '?'
func escapeToken(token string) string {
	var b strings.Builder
	for _, r := range token {
		switch r {
		case '\\', '[', ']', '{', '}', '!', ',', '-':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
