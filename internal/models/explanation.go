// Package models defines the data exchanged with the moderation backend and
// the explanation sets consumed by the term highlighter.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedExplanation reports an explanation entry that does not have the
// {term, coefficient} shape. Callers treat it as fatal.
var ErrMalformedExplanation = errors.New("malformed explanation")

// TermWeight is one explanatory term and its signed contribution to a flag
// category. Only positive coefficients are highlighted.
type TermWeight struct {
	Term        string  `json:"term"`
	Coefficient float64 `json:"coefficient"`
}

// UnmarshalJSON requires both fields to be present with the right types.
func (tw *TermWeight) UnmarshalJSON(data []byte) error {
	var raw struct {
		Term        *string  `json:"term"`
		Coefficient *float64 `json:"coefficient"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedExplanation, err)
	}
	if raw.Term == nil {
		return fmt.Errorf("%w: missing term", ErrMalformedExplanation)
	}
	if raw.Coefficient == nil {
		return fmt.Errorf("%w: missing coefficient for term %q", ErrMalformedExplanation, *raw.Term)
	}
	tw.Term = *raw.Term
	tw.Coefficient = *raw.Coefficient
	return nil
}

// Positive reports whether the term pushed the content toward its category.
func (tw TermWeight) Positive() bool {
	return tw.Coefficient > 0
}

// CategoryTerms is the ordered term list explaining one flag category.
type CategoryTerms struct {
	Category string
	Terms    []TermWeight
}

// ExplanationSet maps flag categories to their explanatory terms. It is a
// slice so that category iteration order is the order of the source data.
type ExplanationSet []CategoryTerms

// ParseExplanationSet decodes the JSON object form
// {"category": [{"term": "...", "coefficient": 0.5}, ...], ...}.
func ParseExplanationSet(data []byte) (ExplanationSet, error) {
	var set ExplanationSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	return set, nil
}

// ExplanationsFromFlags collects the explanation of every flag, in flag order.
// Flags without details contribute an empty category.
func ExplanationsFromFlags(flags []Flag) ExplanationSet {
	set := make(ExplanationSet, 0, len(flags))
	for _, f := range flags {
		var terms []TermWeight
		if f.Details != nil {
			terms = f.Details.Explanation
		}
		set.Add(f.FlagType, terms...)
	}
	return set
}

// Lookup returns the terms recorded for category.
func (s ExplanationSet) Lookup(category string) ([]TermWeight, bool) {
	for _, ct := range s {
		if ct.Category == category {
			return ct.Terms, true
		}
	}
	return nil, false
}

// Put replaces the terms of category, keeping its position, or appends a new
// category at the end.
func (s *ExplanationSet) Put(category string, terms []TermWeight) {
	for i := range *s {
		if (*s)[i].Category == category {
			(*s)[i].Terms = terms
			return
		}
	}
	*s = append(*s, CategoryTerms{Category: category, Terms: terms})
}

// Add appends terms to category, creating it at the end when absent.
func (s *ExplanationSet) Add(category string, terms ...TermWeight) {
	for i := range *s {
		if (*s)[i].Category == category {
			(*s)[i].Terms = append((*s)[i].Terms, terms...)
			return
		}
	}
	*s = append(*s, CategoryTerms{Category: category, Terms: append([]TermWeight(nil), terms...)})
}

// Categories returns the category names in iteration order.
func (s ExplanationSet) Categories() []string {
	out := make([]string, len(s))
	for i, ct := range s {
		out[i] = ct.Category
	}
	return out
}

// MarshalJSON writes the set as a JSON object whose keys keep set order.
func (s ExplanationSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ct := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ct.Category)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		terms := ct.Terms
		if terms == nil {
			terms = []TermWeight{}
		}
		val, err := json.Marshal(terms)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order. A repeated key
// replaces the earlier value in place. null decodes to an empty set.
func (s *ExplanationSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedExplanation, err)
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected object, got %v", ErrMalformedExplanation, tok)
	}
	set := ExplanationSet{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedExplanation, err)
		}
		category, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: expected category name, got %v", ErrMalformedExplanation, tok)
		}
		var terms []TermWeight
		if err := dec.Decode(&terms); err != nil {
			if errors.Is(err, ErrMalformedExplanation) {
				return fmt.Errorf("category %q: %w", category, err)
			}
			return fmt.Errorf("%w: category %q: %v", ErrMalformedExplanation, category, err)
		}
		set.Put(category, terms)
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return fmt.Errorf("%w: %v", ErrMalformedExplanation, err)
	}
	*s = set
	return nil
}
