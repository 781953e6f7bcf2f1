// Package catalog maps programme (course) codes to display names.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/studash/internal/dataset"
	"gopkg.in/yaml.v3"
)

// Entry is one programme of the catalog.
type Entry struct {
	Code int    `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// Catalog is an immutable code<->name table.
type Catalog struct {
	entries []Entry
	byCode  map[int]string
	byName  map[string]int
}

var defaultEntries = []Entry{
	{33, "Biofuel Production Technologies"},
	{171, "Animation and Multimedia Design"},
	{8014, "Social Service (evening attendance)"},
	{9003, "Agronomy"},
	{9070, "Communication Design"},
	{9085, "Veterinary Nursing"},
	{9119, "Informatics Engineering"},
	{9130, "Equinculture"},
	{9147, "Management"},
	{9238, "Social Service"},
	{9254, "Tourism"},
	{9500, "Nursing"},
	{9556, "Oral Hygiene"},
	{9670, "Advertising and Marketing Management"},
	{9773, "Journalism and Communication"},
	{9853, "Basic Education"},
	{9991, "Management (evening attendance)"},
}

// Default returns the built-in 17-programme catalog.
func Default() *Catalog {
	c, _ := New(defaultEntries)
	return c
}

// New builds a catalog. Codes and names (case-insensitively) must be unique.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byCode:  make(map[int]string, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog: empty name for code %d", e.Code)
		}
		if _, dup := c.byCode[e.Code]; dup {
			return nil, fmt.Errorf("catalog: duplicate code %d", e.Code)
		}
		key := nameKey(name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("catalog: duplicate name %q", name)
		}
		c.byCode[e.Code] = name
		c.byName[key] = e.Code
		c.entries = append(c.entries, Entry{Code: e.Code, Name: name})
	}
	return c, nil
}

// LoadFile reads a YAML list of {code, name} entries.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(entries)
}

// Name returns the display name of a code.
func (c *Catalog) Name(code int) (string, bool) {
	n, ok := c.byCode[code]
	return n, ok
}

// Label returns the display name, or "course <code>" for unmapped codes.
func (c *Catalog) Label(code int) string {
	if n, ok := c.byCode[code]; ok {
		return n
	}
	return "course " + strconv.Itoa(code)
}

// Code resolves a display name (case-insensitive) to its code. A numeric
// string that is itself a catalog code is accepted as well.
func (c *Catalog) Code(name string) (int, bool) {
	if code, ok := c.byName[nameKey(name)]; ok {
		return code, true
	}
	if code, err := strconv.Atoi(strings.TrimSpace(name)); err == nil {
		if _, ok := c.byCode[code]; ok {
			return code, true
		}
	}
	return 0, false
}

// Entries returns the catalog in declaration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of programmes.
func (c *Catalog) Len() int { return len(c.entries) }

// Unmapped returns the distinct course codes present in records but absent
// from the catalog, in ascending order.
func (c *Catalog) Unmapped(records []dataset.Record) []int {
	seen := map[int]bool{}
	var out []int
	for _, r := range records {
		if _, ok := c.byCode[r.Course]; ok || seen[r.Course] {
			continue
		}
		seen[r.Course] = true
		out = append(out, r.Course)
	}
	sort.Ints(out)
	return out
}

func nameKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
