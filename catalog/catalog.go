// Package catalog holds the versioned list of permission keys that the
// server seeds into the store at startup.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed permissions.yaml
var defaultCatalog []byte

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type Entry struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

type Catalog struct {
	Version     int     `yaml:"version" json:"version"`
	Permissions []Entry `yaml:"permissions" json:"permissions"`
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded permission catalog is invalid: %v", err))
	}
	return c
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading permission catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decoding permission catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Validate() error {
	if len(c.Permissions) == 0 {
		return errors.New("permission catalog is empty")
	}
	seen := make(map[string]struct{}, len(c.Permissions))
	for i, e := range c.Permissions {
		if !keyPattern.MatchString(e.Key) {
			return fmt.Errorf("permission %d: invalid key %q", i, e.Key)
		}
		if e.Label == "" {
			return fmt.Errorf("permission %q: empty label", e.Key)
		}
		if _, dup := seen[e.Key]; dup {
			return fmt.Errorf("permission %q: listed twice", e.Key)
		}
		seen[e.Key] = struct{}{}
	}
	return nil
}

func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.Permissions))
	for i, e := range c.Permissions {
		keys[i] = e.Key
	}
	return keys
}

func (c *Catalog) Has(key string) bool {
	for _, e := range c.Permissions {
		if e.Key == key {
			return true
		}
	}
	return false
}
