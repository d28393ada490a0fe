package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

const (
	keyInitialApps = "initial-apps"
	keyArgsFor     = "args-for"
)

// ErrInvalid is wrapped by every document rejection.
var ErrInvalid = errors.New("invalid startup configuration")

// Config is a parsed startup document.
type Config struct {
	InitialApps []string
	ArgsFor     map[string][]string
}

// Parse parses a JSON document.
func Parse(data []byte) (*Config, error) {
	var doc interface{}
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return fromDocument(doc)
}

// ParseYAML parses a YAML document.
func ParseYAML(data []byte) (*Config, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return fromDocument(doc)
}

// ParseTOML parses a TOML document. Application names contain a colon and
// must be quoted as keys.
func ParseTOML(data []byte) (*Config, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return fromDocument(doc)
}

// Load reads and parses the document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read startup configuration: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".toml":
		return ParseTOML(data)
	default:
		return Parse(data)
	}
}

func fromDocument(doc interface{}) (*Config, error) {
	root, ok := asObject(doc)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalid)
	}

	cfg := &Config{ArgsFor: make(map[string][]string)}

	if v, present := root[keyInitialApps]; present {
		apps, ok := asStrings(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be an array of strings", ErrInvalid, keyInitialApps)
		}
		cfg.InitialApps = apps
	}

	if v, present := root[keyArgsFor]; present {
		byName, ok := asObject(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be an object", ErrInvalid, keyArgsFor)
		}
		for name, raw := range byName {
			args, ok := asStrings(raw)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%q] must be an array of strings", ErrInvalid, keyArgsFor, name)
			}
			cfg.ArgsFor[name] = args
		}
	}

	return cfg, nil
}

// asObject accepts the map shapes the three decoders produce. Non-string
// keys are rejected.
func asObject(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[key] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func asStrings(v interface{}) ([]string, bool) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// WithCommandLine applies positional arguments: the first names an
// application to start, and all of them become its arguments.
func (c *Config) WithCommandLine(positional []string) *Config {
	if len(positional) == 0 {
		return c
	}
	name := positional[0]
	if c.ArgsFor == nil {
		c.ArgsFor = make(map[string][]string)
	}
	c.ArgsFor[name] = append([]string(nil), positional...)
	for _, app := range c.InitialApps {
		if app == name {
			return c
		}
	}
	c.InitialApps = append(c.InitialApps, name)
	return c
}
