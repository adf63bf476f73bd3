// Package materials describes the material categories a shipment can carry.
//
// The set of categories differs between deployments, so it is loaded from YAML.
// A material with fixed_price is priced from the table and only its weight is asked.
package materials

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// MaxMaterials bounds the catalogue size.
const MaxMaterials = 13

const maxKeyLen = 32

//go:embed default.yaml
var defaultCatalog []byte

var (
	ErrInvalidCatalog = errors.New("invalid material catalog")

	keyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// Material is one recyclable category.
type Material struct {
	Key        string
	Title      string
	Group      string
	FixedPrice *decimal.Decimal
}

// HasFixedPrice reports whether the price comes from the table instead of the operator.
func (m Material) HasFixedPrice() bool {
	return m.FixedPrice != nil
}

// Group is a screen of materials on the category keyboard.
type Group struct {
	Key       string
	Title     string
	Materials []Material
}

// Catalog is an ordered, validated set of groups.
type Catalog struct {
	groups []Group
	byKey  map[string]Material
	order  []string
}

type fileMaterial struct {
	Key        string   `yaml:"key"`
	Title      string   `yaml:"title"`
	FixedPrice *float64 `yaml:"fixed_price"`
}

type fileGroup struct {
	Key       string         `yaml:"key"`
	Title     string         `yaml:"title"`
	Materials []fileMaterial `yaml:"materials"`
}

type file struct {
	Groups []fileGroup `yaml:"groups"`
}

// Default returns the built-in catalogue.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("materials: default catalog: %v", err))
	}
	return c
}

// Load reads a catalogue file. An empty path yields the built-in catalogue.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalogue.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{byKey: make(map[string]Material)}
	groupKeys := make(map[string]bool)
	for _, fg := range f.Groups {
		if !validKey(fg.Key) || strings.TrimSpace(fg.Title) == "" {
			return nil, fmt.Errorf("%w: bad group %q", ErrInvalidCatalog, fg.Key)
		}
		if groupKeys[fg.Key] {
			return nil, fmt.Errorf("%w: duplicate group %q", ErrInvalidCatalog, fg.Key)
		}
		groupKeys[fg.Key] = true

		g := Group{Key: fg.Key, Title: fg.Title}
		for _, fm := range fg.Materials {
			if !validKey(fm.Key) || strings.TrimSpace(fm.Title) == "" {
				return nil, fmt.Errorf("%w: bad material %q", ErrInvalidCatalog, fm.Key)
			}
			if _, dup := c.byKey[fm.Key]; dup {
				return nil, fmt.Errorf("%w: duplicate material %q", ErrInvalidCatalog, fm.Key)
			}
			m := Material{Key: fm.Key, Title: fm.Title, Group: fg.Key}
			if fm.FixedPrice != nil {
				if *fm.FixedPrice < 0 {
					return nil, fmt.Errorf("%w: negative price for %q", ErrInvalidCatalog, fm.Key)
				}
				p := decimal.NewFromFloat(*fm.FixedPrice)
				m.FixedPrice = &p
			}
			g.Materials = append(g.Materials, m)
			c.byKey[m.Key] = m
			c.order = append(c.order, m.Key)
		}
		if len(g.Materials) == 0 {
			return nil, fmt.Errorf("%w: group %q is empty", ErrInvalidCatalog, fg.Key)
		}
		c.groups = append(c.groups, g)
	}

	if len(c.order) == 0 || len(c.order) > MaxMaterials {
		return nil, fmt.Errorf("%w: %d materials, want 1..%d", ErrInvalidCatalog, len(c.order), MaxMaterials)
	}
	return c, nil
}

func validKey(key string) bool {
	return len(key) <= maxKeyLen && keyPattern.MatchString(key)
}

// Groups returns the keyboard groups in file order.
func (c *Catalog) Groups() []Group {
	return c.groups
}

// Group looks a group up by key.
func (c *Catalog) Group(key string) (Group, bool) {
	for _, g := range c.groups {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

// Material looks a material up by key.
func (c *Catalog) Material(key string) (Material, bool) {
	m, ok := c.byKey[key]
	return m, ok
}

// Materials returns every material in catalogue order.
func (c *Catalog) Materials() []Material {
	out := make([]Material, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.byKey[k])
	}
	return out
}

// Title returns a human-readable name, falling back to the key for retired materials.
func (c *Catalog) Title(key string) string {
	if m, ok := c.byKey[key]; ok {
		return m.Title
	}
	return key
}
