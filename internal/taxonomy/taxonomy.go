// Package taxonomy holds the fixed group → subgroup → category tree used to
// classify transactions, and the lookups derived from it.
package taxonomy

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

//go:embed default.json
var defaultJSON []byte

// Subgroup is a named, ordered list of categories.
type Subgroup struct {
	Name       string
	Categories []string
}

// Group is a named, ordered list of subgroups.
type Group struct {
	Name      string
	Subgroups []Subgroup
}

// Taxonomy is the full three level tree. Order is significant and follows the
// source document. It is never mutated after Parse returns.
type Taxonomy struct {
	Groups []Group
}

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	t, err := Parse(defaultJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
	}
	return t
}

// Load reads a taxonomy document from path, or returns Default when path is empty.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse taxonomy file %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a document of the form
//
//	{"Group": {"Subgroup": ["Category", ...], ...}, ...}
//
// keeping key order, which encoding/json maps would lose.
func Parse(data []byte) (*Taxonomy, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("taxonomy root: %w", err)
	}

	t := &Taxonomy{}
	groups := map[string]bool{}
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, fmt.Errorf("group name: %w", err)
		}
		if groups[name] {
			return nil, fmt.Errorf("duplicate group %q", name)
		}
		groups[name] = true

		g, err := parseGroup(dec, name)
		if err != nil {
			return nil, err
		}
		t.Groups = append(t.Groups, g)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("taxonomy root: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after taxonomy document")
	}
	return t, nil
}

func parseGroup(dec *json.Decoder, name string) (Group, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return Group{}, fmt.Errorf("group %q: %w", name, err)
	}
	g := Group{Name: name}
	seen := map[string]bool{}
	for dec.More() {
		sub, err := readKey(dec)
		if err != nil {
			return Group{}, fmt.Errorf("group %q subgroup name: %w", name, err)
		}
		if seen[sub] {
			return Group{}, fmt.Errorf("group %q: duplicate subgroup %q", name, sub)
		}
		seen[sub] = true

		var cats []string
		if err := dec.Decode(&cats); err != nil {
			return Group{}, fmt.Errorf("group %q subgroup %q: %w", name, sub, err)
		}
		g.Subgroups = append(g.Subgroups, Subgroup{Name: sub, Categories: cats})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Group{}, fmt.Errorf("group %q: %w", name, err)
	}
	return g, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

// Group returns the named group.
func (t *Taxonomy) Group(name string) (Group, bool) {
	for _, g := range t.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Subgroup returns the named subgroup of the named group.
func (t *Taxonomy) Subgroup(group, subgroup string) (Subgroup, bool) {
	g, ok := t.Group(group)
	if !ok {
		return Subgroup{}, false
	}
	for _, s := range g.Subgroups {
		if s.Name == subgroup {
			return s, true
		}
	}
	return Subgroup{}, false
}
