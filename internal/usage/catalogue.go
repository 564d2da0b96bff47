package usage

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalogue.yaml
var defaultCatalogueYAML []byte

// Mapping is the consumption of one unit sold of a POS product.
type Mapping struct {
	Name                string  `yaml:"name" json:"name"`
	PattiesPerUnit      float64 `yaml:"patties" json:"patties_per_unit"`
	RedMeatGramsPerUnit float64 `yaml:"red_meat_grams" json:"red_meat_grams_per_unit"`
	ChickenGramsPerUnit float64 `yaml:"chicken_grams" json:"chicken_grams_per_unit"`
	RollsPerUnit        float64 `yaml:"rolls" json:"rolls_per_unit"`
}

type catalogueFile struct {
	Products []Mapping `yaml:"products"`
}

// Catalogue indexes mappings by normalized name.
type Catalogue struct {
	byKey map[string]Mapping
	// substring fallback order: longest key first, then lexical
	keys []string
}

func NewCatalogue(mappings []Mapping) (*Catalogue, error) {
	c := &Catalogue{byKey: make(map[string]Mapping, len(mappings))}
	for _, m := range mappings {
		key := Normalize(m.Name)
		if key == "" {
			return nil, fmt.Errorf("catalogue: empty product name")
		}
		if prev, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("catalogue: %q and %q normalize to the same name %q", prev.Name, m.Name, key)
		}
		if m.PattiesPerUnit < 0 || m.RedMeatGramsPerUnit < 0 || m.ChickenGramsPerUnit < 0 || m.RollsPerUnit < 0 {
			return nil, fmt.Errorf("catalogue: %q has a negative usage factor", m.Name)
		}
		c.byKey[key] = m
		c.keys = append(c.keys, key)
	}
	sort.Slice(c.keys, func(i, j int) bool {
		if len(c.keys[i]) != len(c.keys[j]) {
			return len(c.keys[i]) > len(c.keys[j])
		}
		return c.keys[i] < c.keys[j]
	})
	return c, nil
}

// LoadCatalogueYAML reads a catalogue of the form
//
//	products:
//	  - name: Single Smash Burger
//	    patties: 1
//	    red_meat_grams: 95
//	    rolls: 1
func LoadCatalogueYAML(r io.Reader) (*Catalogue, error) {
	var f catalogueFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("catalogue yaml: %w", err)
	}
	return NewCatalogue(f.Products)
}

// DefaultCatalogue is the venue's burger list shipped with the binary.
func DefaultCatalogue() *Catalogue {
	c, err := LoadCatalogueYAML(bytes.NewReader(defaultCatalogueYAML))
	if err != nil {
		panic("usage: embedded catalogue is invalid: " + err.Error())
	}
	return c
}

// Resolve finds the mapping for a raw POS item name: exact normalized match
// first, then the longest catalogue name contained in it as whole words.
func (c *Catalogue) Resolve(name string) (string, Mapping, bool) {
	n := Normalize(name)
	if n == "" {
		return "", Mapping{}, false
	}
	if m, ok := c.byKey[n]; ok {
		return n, m, true
	}
	padded := " " + n + " "
	for _, key := range c.keys {
		if strings.Contains(padded, " "+key+" ") {
			return key, c.byKey[key], true
		}
	}
	return "", Mapping{}, false
}

func (c *Catalogue) Len() int {
	return len(c.byKey)
}

// Mappings returns the catalogue sorted by normalized name.
func (c *Catalogue) Mappings() []Mapping {
	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Mapping, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.byKey[k])
	}
	return out
}
