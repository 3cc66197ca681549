// Package catalog holds the disc molds a bag slot can reference.
//
// A catalog is a YAML document with a top-level "discs" list. Default
// returns the catalog embedded in the binary; Load reads a replacement from
// disk.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed discs.yaml
var defaultData []byte

// Disc types in picker order.
const (
	TypeDistanceDriver = "Distance Driver"
	TypeFairwayDriver  = "Fairway Driver"
	TypeMidrange       = "Midrange"
	TypePutter         = "Putter"
)

// Types lists the recognized disc types.
var Types = []string{TypeDistanceDriver, TypeFairwayDriver, TypeMidrange, TypePutter}

// AllValues is the filter value that matches every manufacturer or type.
const AllValues = "all"

// Catalog validation errors.
var (
	ErrDuplicateID = errors.New("duplicate disc id")
	ErrInvalidID   = errors.New("invalid disc id: must be positive")
	ErrEmptyName   = errors.New("disc name is empty")
	ErrUnknownType = errors.New("unknown disc type")
)

// Disc is one mold with its flight numbers.
type Disc struct {
	ID           int     `yaml:"id" json:"id"`
	Name         string  `yaml:"name" json:"name"`
	Manufacturer string  `yaml:"manufacturer" json:"manufacturer"`
	Type         string  `yaml:"type" json:"type"`
	Speed        float64 `yaml:"speed" json:"speed"`
	Glide        float64 `yaml:"glide" json:"glide"`
	Turn         float64 `yaml:"turn" json:"turn"`
	Fade         float64 `yaml:"fade" json:"fade"`
}

// Catalog is an immutable, validated set of discs.
type Catalog struct {
	discs []Disc
	byID  map[int]int
}

type document struct {
	Discs []Disc `yaml:"discs"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultData)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		discs: make([]Disc, 0, len(doc.Discs)),
		byID:  make(map[int]int, len(doc.Discs)),
	}
	for _, d := range doc.Discs {
		switch {
		case d.ID <= 0:
			return nil, fmt.Errorf("%w: %d", ErrInvalidID, d.ID)
		case strings.TrimSpace(d.Name) == "":
			return nil, fmt.Errorf("%w: id %d", ErrEmptyName, d.ID)
		case !slices.Contains(Types, d.Type):
			return nil, fmt.Errorf("%w: %q (id %d)", ErrUnknownType, d.Type, d.ID)
		}
		if _, ok := c.byID[d.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, d.ID)
		}
		c.byID[d.ID] = len(c.discs)
		c.discs = append(c.discs, d)
	}
	return c, nil
}

// Len returns the number of discs.
func (c *Catalog) Len() int {
	return len(c.discs)
}

// Discs returns a copy of every disc in file order.
func (c *Catalog) Discs() []Disc {
	return slices.Clone(c.discs)
}

// ByID looks up a disc.
func (c *Catalog) ByID(id int) (Disc, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Disc{}, false
	}
	return c.discs[i], true
}

// Manufacturers returns the distinct manufacturers, sorted.
func (c *Catalog) Manufacturers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range c.discs {
		if !seen[d.Manufacturer] {
			seen[d.Manufacturer] = true
			out = append(out, d.Manufacturer)
		}
	}
	sort.Strings(out)
	return out
}

// Filter selects discs in the picker.
//
// Search matches a case-insensitive substring of the name or the
// manufacturer. Manufacturer and Type match exactly; empty or AllValues
// matches everything.
type Filter struct {
	Search       string `json:"search,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Type         string `json:"type,omitempty"`
}

func (f Filter) matches(d Disc) bool {
	if q := strings.ToLower(f.Search); q != "" &&
		!strings.Contains(strings.ToLower(d.Name), q) &&
		!strings.Contains(strings.ToLower(d.Manufacturer), q) {
		return false
	}
	if f.Manufacturer != "" && f.Manufacturer != AllValues && d.Manufacturer != f.Manufacturer {
		return false
	}
	if f.Type != "" && f.Type != AllValues && d.Type != f.Type {
		return false
	}
	return true
}

// Filter returns the discs matching f sorted by name, case-insensitively.
func (c *Catalog) Filter(f Filter) []Disc {
	out := make([]Disc, 0, len(c.discs))
	for _, d := range c.discs {
		if f.matches(d) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
