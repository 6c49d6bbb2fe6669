package highlight

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/modboard/internal/models"
)

// CollisionPolicy decides which category a term is highlighted as when it is
// positively weighted in more than one category.
type CollisionPolicy string

const (
	// LastWins keeps the category processed last in set order.
	LastWins CollisionPolicy = "last"
	// FirstWins keeps the category processed first in set order.
	FirstWins CollisionPolicy = "first"
)

// ParseCollisionPolicy maps a config value to a policy; "" means LastWins.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", LastWins:
		return LastWins, nil
	case FirstWins:
		return FirstWins, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q (want %q or %q)", s, LastWins, FirstWins)
	}
}

// indexedTerm is one distinct term and the category it highlights as.
type indexedTerm struct {
	term     string
	category string
	runes    int
	seen     int
}

// TermIndex maps case-folded terms to their winning category.
type TermIndex struct {
	terms []indexedTerm
	byKey map[string]int
}

// BuildTermIndex collects every positively weighted term of set. Terms are
// keyed case-insensitively; the first spelling seen is kept for matching.
// Non-finite coefficients are rejected, as are blank terms that would be
// highlighted; a blank term with a non-positive weight is skipped.
func BuildTermIndex(set models.ExplanationSet, policy CollisionPolicy) (*TermIndex, error) {
	idx := &TermIndex{byKey: make(map[string]int)}
	for _, ct := range set {
		for _, tw := range ct.Terms {
			if math.IsNaN(tw.Coefficient) || math.IsInf(tw.Coefficient, 0) {
				return nil, fmt.Errorf("%w: category %q term %q has non-finite coefficient",
					models.ErrMalformedExplanation, ct.Category, tw.Term)
			}
			if !tw.Positive() {
				continue
			}
			if strings.TrimSpace(tw.Term) == "" {
				return nil, fmt.Errorf("%w: category %q has a blank term", models.ErrMalformedExplanation, ct.Category)
			}
			key := strings.ToLower(tw.Term)
			if i, ok := idx.byKey[key]; ok {
				if policy != FirstWins {
					idx.terms[i].category = ct.Category
				}
				continue
			}
			idx.byKey[key] = len(idx.terms)
			idx.terms = append(idx.terms, indexedTerm{
				term:     tw.Term,
				category: ct.Category,
				runes:    utf8.RuneCountInString(tw.Term),
				seen:     len(idx.terms),
			})
		}
	}
	return idx, nil
}

// Len returns the number of distinct terms.
func (idx *TermIndex) Len() int {
	return len(idx.terms)
}

// Category returns the category term is highlighted as.
func (idx *TermIndex) Category(term string) (string, bool) {
	i, ok := idx.byKey[strings.ToLower(term)]
	if !ok {
		return "", false
	}
	return idx.terms[i].category, true
}

// byLength returns the terms longest first; equal lengths keep first-seen order.
func (idx *TermIndex) byLength() []indexedTerm {
	out := append([]indexedTerm(nil), idx.terms...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].runes != out[j].runes {
			return out[i].runes > out[j].runes
		}
		return out[i].seen < out[j].seen
	})
	return out
}
