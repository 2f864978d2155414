package thumb

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	serr "xpick/internal/errors"
)

// FirstIndexedImage returns the first image path listed in a selection
// (.sel) or metadata (.xmd) file, resolved relative to the index file.
//
// Selection files carry one "path flag" pair per line. Metadata files are
// STAR tables; header lines (data_, loop_, _label) and comments are skipped
// and the first column of the first row is used. Stack references of the
// form "N@stack.stk" resolve to the stack file.
func FirstIndexedImage(indexPath string) (string, error) {
	f, err := os.Open(indexPath)
	if err != nil {
		return "", serr.NewFileError("cannot open index file", indexPath, serr.FileAccessDenied, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "data_") || strings.HasPrefix(line, "loop_") ||
			strings.HasPrefix(line, "_") {
			continue
		}
		token := strings.Fields(line)[0]
		if at := strings.LastIndex(token, "@"); at >= 0 {
			token = token[at+1:]
		}
		if token == "" {
			continue
		}
		if !filepath.IsAbs(token) {
			token = filepath.Join(filepath.Dir(indexPath), token)
		}
		return token, nil
	}
	if err := scanner.Err(); err != nil {
		return "", serr.NewFileError("cannot read index file", indexPath, serr.FileAccessDenied, err)
	}
	return "", serr.NewFileError("index file lists no images", indexPath, serr.InvalidOperation, nil)
}
