package picker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	serr "xpick/internal/errors"

	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// loadProperties reads the flat key/value space of a classifier file.
// Files ending in .yaml or .yml are YAML documents whose nested maps
// flatten to dotted keys; anything else is a Java properties file. Values
// are kept as written: no ${key} or environment expansion, no quote
// stripping, and a # only starts a comment at the beginning of a line.
func loadProperties(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, serr.NewConfigError("cannot read classifier configuration", path, serr.ConfigNotFound, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, serr.NewConfigError("cannot parse classifier configuration", path, serr.InvalidConfig, err)
		}
		props := make(map[string]string)
		flatten("", doc, props)
		return props, nil
	default:
		loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
		p, err := loader.LoadBytes(data)
		if err != nil {
			return nil, serr.NewConfigError("cannot parse classifier configuration", path, serr.InvalidConfig, err)
		}
		return p.Map(), nil
	}
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		if prefix != "" {
			key = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(key, v, out)
		case []any:
			parts := make([]string, len(v))
			for i, item := range v {
				parts[i] = scalar(item)
			}
			out[key] = strings.Join(parts, ",")
		default:
			out[key] = scalar(v)
		}
	}
}

func scalar(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// sortedKeys is used for deterministic debug output
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
