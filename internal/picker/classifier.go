// Package picker runs an external particle-autopicking program on a
// micrograph. A classifier configuration file declares the program's
// parameters and the command templates they are substituted into.
package picker

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	serr "xpick/internal/errors"
	log "xpick/internal/log"

	"github.com/sahilm/fuzzy"
)

// Configuration keys
const (
	KeyParameters      = "parameters"
	KeyAutopickCommand = "autopickCommand"
	KeyConvertCommand  = "convertCommand"
	KeyRunDir          = "runDir"
)

// Implicit placeholder names
const (
	TokenMicrograph     = "micrograph"
	TokenMicrographName = "micrographName"
)

var tokenPattern = regexp.MustCompile(`%\(([^()]*)\)`)

// Placeholder returns the template token for a parameter name
func Placeholder(name string) string {
	return "%(" + name + ")"
}

// Parameter is one declared classifier parameter
type Parameter struct {
	Name  string
	Label string
	Help  string
	Value string
}

// Micrograph identifies the image an autopick run works on
type Micrograph struct {
	// Path substitutes %(micrograph)
	Path string
	// Name substitutes %(micrographName)
	Name string
}

// MicrographFromPath names a micrograph after its file without extension
func MicrographFromPath(path string) Micrograph {
	base := filepath.Base(path)
	return Micrograph{Path: path, Name: strings.TrimSuffix(base, filepath.Ext(base))}
}

// Option configures a Classifier
type Option func(*Classifier)

// WithRunner replaces the command runner
func WithRunner(r Runner) Option {
	return func(c *Classifier) { c.runner = r }
}

// WithTimeout bounds each command; zero means unbounded
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) { c.timeout = d }
}

// WithLock toggles the run-directory lock
func WithLock(enabled bool) Option {
	return func(c *Classifier) { c.lock = enabled }
}

// WithLockRetry sets the polling interval while waiting for the lock
func WithLockRetry(d time.Duration) Option {
	return func(c *Classifier) { c.lockRetry = d }
}

// Classifier is a generic autopicking strategy configured from a file.
// Parameter values may be changed with SetParameter; everything else is
// fixed after New.
type Classifier struct {
	path            string
	mu              sync.RWMutex
	params          []Parameter
	autopickCommand string
	convertCommand  string
	runDir          string

	runner    Runner
	timeout   time.Duration
	lock      bool
	lockRetry time.Duration

	logger *log.Logger
}

// New loads the classifier configuration at configPath. It fails when the
// file cannot be read or does not declare parameters.
func New(configPath string, opts ...Option) (*Classifier, error) {
	props, err := loadProperties(configPath)
	if err != nil {
		return nil, err
	}

	declared, ok := props[KeyParameters]
	if !ok {
		return nil, serr.NewConfigError("classifier configuration has no parameters key", configPath, serr.InvalidConfig, nil)
	}

	c := &Classifier{
		path:            configPath,
		autopickCommand: props[KeyAutopickCommand],
		convertCommand:  props[KeyConvertCommand],
		runDir:          props[KeyRunDir],
		runner:          &ShellRunner{},
		lock:            true,
		lockRetry:       100 * time.Millisecond,
	}
	for _, name := range strings.Split(declared, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c.params = append(c.params, Parameter{
			Name:  name,
			Label: props[name+".label"],
			Help:  props[name+".help"],
			Value: props[name+".value"],
		})
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = log.LogWithFields(log.F("classifier", configPath))
	c.logger.With(log.F("parameters", len(c.params)), log.F("keys", sortedKeys(props))).Debug("classifier loaded")
	return c, nil
}

// Path returns the configuration file the classifier was loaded from
func (c *Classifier) Path() string { return c.path }

// Parameters returns the declared parameters in declaration order
func (c *Classifier) Parameters() []Parameter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Parameter, len(c.params))
	copy(out, c.params)
	return out
}

// SetParameter changes the value of a declared parameter for later runs.
// The configuration file is not rewritten.
func (c *Classifier) SetParameter(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.params {
		if c.params[i].Name == name {
			c.params[i].Value = value
			return nil
		}
	}
	return serr.NewConfigError("unknown parameter", name, serr.InvalidConfig, nil)
}

// AutopickCommand returns the unexpanded autopick template
func (c *Classifier) AutopickCommand() string { return c.autopickCommand }

// ConvertCommand returns the convert command, which is run as written
func (c *Classifier) ConvertCommand() string { return c.convertCommand }

// RunDir returns the directory the autopick command runs in, or ""
func (c *Classifier) RunDir() string { return c.runDir }

// NeedsTraining is always false: the external program needs no examples
func (c *Classifier) NeedsTraining() bool { return false }

// TrainingParticlesMinimum is always zero
func (c *Classifier) TrainingParticlesMinimum() int { return 0 }

// Expand substitutes the parameters and the micrograph into the autopick
// template. Parameters are replaced in declaration order, literally;
// tokens naming nothing are left as written.
func (c *Classifier) Expand(mic Micrograph) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cmd := c.autopickCommand
	for _, p := range c.params {
		cmd = strings.ReplaceAll(cmd, Placeholder(p.Name), p.Value)
	}
	cmd = strings.ReplaceAll(cmd, Placeholder(TokenMicrograph), mic.Path)
	cmd = strings.ReplaceAll(cmd, Placeholder(TokenMicrographName), mic.Name)
	return cmd
}

// UnresolvedToken is a placeholder no parameter or implicit token provides
type UnresolvedToken struct {
	Token string
	// Suggestion is the closest declared parameter name, if any
	Suggestion string
}

// Unresolved lists the placeholders in template that Expand would leave in
// place, each once, in order of first appearance.
func (c *Classifier) Unresolved(template string) []UnresolvedToken {
	known := map[string]bool{TokenMicrograph: true, TokenMicrographName: true}
	var names []string
	for _, p := range c.Parameters() {
		known[p.Name] = true
		names = append(names, p.Name)
	}

	var out []UnresolvedToken
	seen := map[string]bool{}
	for _, m := range tokenPattern.FindAllStringSubmatch(template, -1) {
		name := m[1]
		if known[name] || seen[name] {
			continue
		}
		seen[name] = true
		tok := UnresolvedToken{Token: name}
		if matches := fuzzy.Find(name, names); len(matches) > 0 {
			tok.Suggestion = matches[0].Str
		} else if matches := fuzzy.Find(name, []string{TokenMicrograph, TokenMicrographName}); len(matches) > 0 {
			tok.Suggestion = matches[0].Str
		}
		out = append(out, tok)
	}
	return out
}
