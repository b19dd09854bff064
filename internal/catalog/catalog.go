// Package catalog holds the static product catalog suppliers pick from and
// the in-progress selection a supplier builds before adding products.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// BrandOther is the brand choice that defers to a user-typed brand name.
const BrandOther = "Other"

// DefaultUnit is the unit a freshly picked product starts with.
const DefaultUnit = "piece"

// Item is a product that can be offered.
type Item struct {
	ID     string   `yaml:"id" json:"id"`
	Name   string   `yaml:"name" json:"name"`
	Sizes  []string `yaml:"sizes" json:"sizes"`
	Brands []string `yaml:"brands" json:"brands"`
}

// Subcategory groups items within a category.
type Subcategory struct {
	Name     string `yaml:"name" json:"name"`
	Products []Item `yaml:"products" json:"products"`
}

// Category is the top level of the catalog.
type Category struct {
	Name          string        `yaml:"name" json:"name"`
	Subcategories []Subcategory `yaml:"subcategories" json:"subcategories"`
}

// Catalog is read-only after Load and safe for concurrent use.
type Catalog struct {
	Units      []string   `yaml:"units" json:"units"`
	Categories []Category `yaml:"categories" json:"categories"`

	index map[string]location
}

type location struct {
	category    string
	subcategory string
	item        Item
}

// Load reads the catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes and checks a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if len(c.Units) == 0 {
		c.Units = []string{DefaultUnit}
	}

	c.index = make(map[string]location)
	for _, cat := range c.Categories {
		for _, sub := range cat.Subcategories {
			for _, it := range sub.Products {
				if it.ID == "" || it.Name == "" {
					return nil, fmt.Errorf("catalog %s/%s: product without id or name", cat.Name, sub.Name)
				}
				if len(it.Sizes) == 0 || len(it.Brands) == 0 {
					return nil, fmt.Errorf("catalog product %s: sizes and brands must not be empty", it.ID)
				}
				if _, dup := c.index[it.ID]; dup {
					return nil, fmt.Errorf("catalog product %s: duplicate id", it.ID)
				}
				c.index[it.ID] = location{category: cat.Name, subcategory: sub.Name, item: it}
			}
		}
	}
	return &c, nil
}

// HasCategory reports whether name is a top-level category.
func (c *Catalog) HasCategory(name string) bool {
	_, ok := c.category(name)
	return ok
}

// Subcategory returns the named subcategory of a category.
func (c *Catalog) Subcategory(category, name string) (Subcategory, bool) {
	cat, ok := c.category(category)
	if !ok {
		return Subcategory{}, false
	}
	for _, sub := range cat.Subcategories {
		if sub.Name == name {
			return sub, true
		}
	}
	return Subcategory{}, false
}

// Item looks a product up by id, returning where it lives.
func (c *Catalog) Item(id string) (item Item, category, subcategory string, ok bool) {
	loc, ok := c.index[id]
	if !ok {
		return Item{}, "", "", false
	}
	return loc.item, loc.category, loc.subcategory, true
}

// HasUnit reports whether u is an allowed unit.
func (c *Catalog) HasUnit(u string) bool {
	return slices.Contains(c.Units, u)
}

func (c *Catalog) category(name string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return Category{}, false
}
