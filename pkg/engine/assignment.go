package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Trait is one (category, value) pair.
type Trait struct {
	Category string `json:"trait_type"`
	Value    string `json:"value"`
}

// Assignment is an insertion-ordered mapping from category to selected value.
// The zero value is an empty assignment ready to use.
type Assignment struct {
	traits []Trait
	index  map[string]int
}

// NewAssignment builds an assignment from pairs in order. Later duplicates
// overwrite earlier values in place.
func NewAssignment(traits ...Trait) *Assignment {
	a := &Assignment{}
	for _, t := range traits {
		a.Set(t.Category, t.Value)
	}
	return a
}

// Set records value for category, appending it if the category is new.
func (a *Assignment) Set(category, value string) {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	if i, ok := a.index[category]; ok {
		a.traits[i].Value = value
		return
	}
	a.index[category] = len(a.traits)
	a.traits = append(a.traits, Trait{Category: category, Value: value})
}

// Get returns the value recorded for category.
func (a *Assignment) Get(category string) (string, bool) {
	if a == nil || a.index == nil {
		return "", false
	}
	i, ok := a.index[category]
	if !ok {
		return "", false
	}
	return a.traits[i].Value, true
}

// Has reports whether category has a value.
func (a *Assignment) Has(category string) bool {
	_, ok := a.Get(category)
	return ok
}

// Len returns the number of recorded categories.
func (a *Assignment) Len() int {
	if a == nil {
		return 0
	}
	return len(a.traits)
}

// Traits returns a copy of the pairs in insertion order.
func (a *Assignment) Traits() []Trait {
	if a == nil {
		return nil
	}
	out := make([]Trait, len(a.traits))
	copy(out, a.traits)
	return out
}

// Sorted returns a copy of the pairs ordered by category, then value.
func (a *Assignment) Sorted() []Trait {
	out := a.Traits()
	sortTraits(out)
	return out
}

// Clone returns an independent copy.
func (a *Assignment) Clone() *Assignment {
	return NewAssignment(a.Traits()...)
}

// Equal reports whether both assignments hold the same mapping, ignoring order.
func (a *Assignment) Equal(b *Assignment) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, t := range a.Traits() {
		if v, ok := b.Get(t.Category); !ok || v != t.Value {
			return false
		}
	}
	return true
}

// MarshalJSON writes the assignment as a JSON object preserving insertion order.
func (a *Assignment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range a.Traits() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(t.Category)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(t.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of string values, keeping key order.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("assignment: expected JSON object")
	}

	*a = Assignment{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("assignment: expected string key")
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("assignment: value for %q: %w", key, err)
		}
		a.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

func sortTraits(ts []Trait) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Category != ts[j].Category {
			return ts[i].Category < ts[j].Category
		}
		return ts[i].Value < ts[j].Value
	})
}
