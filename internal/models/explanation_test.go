package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestParseExplanationSet_keepsKeyOrder(t *testing.T) {
	data := []byte(`{
		"violence": [{"term": "kill", "coefficient": 0.7}],
		"hate_speech": [{"term": "hate speech", "coefficient": 0.8}, {"term": "hate", "coefficient": 0.3}],
		"profanity": []
	}`)
	set, err := ParseExplanationSet(data)
	if err != nil {
		t.Fatalf("ParseExplanationSet: %v", err)
	}
	want := []string{"violence", "hate_speech", "profanity"}
	if got := set.Categories(); !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
	terms, ok := set.Lookup("hate_speech")
	if !ok || len(terms) != 2 {
		t.Fatalf("Lookup(hate_speech) = %v, %v", terms, ok)
	}
	if terms[0].Term != "hate speech" || terms[0].Coefficient != 0.8 {
		t.Errorf("first term = %+v", terms[0])
	}
}

func TestParseExplanationSet_malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing term", `{"profanity": [{"coefficient": 0.4}]}`},
		{"missing coefficient", `{"profanity": [{"term": "darn"}]}`},
		{"term not a string", `{"profanity": [{"term": 3, "coefficient": 0.4}]}`},
		{"coefficient not a number", `{"profanity": [{"term": "darn", "coefficient": "high"}]}`},
		{"category not a list", `{"profanity": 4}`},
		{"top level array", `[{"term": "darn", "coefficient": 0.4}]`},
		{"truncated", `{"profanity": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExplanationSet([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrMalformedExplanation) {
				t.Errorf("error %v does not wrap ErrMalformedExplanation", err)
			}
		})
	}
}

func TestParseExplanationSet_nullAndEmpty(t *testing.T) {
	set, err := ParseExplanationSet([]byte(`null`))
	if err != nil || len(set) != 0 {
		t.Errorf("null: got %v, %v", set, err)
	}
	set, err = ParseExplanationSet([]byte(`{}`))
	if err != nil || len(set) != 0 {
		t.Errorf("empty object: got %v, %v", set, err)
	}
}

func TestParseExplanationSet_duplicateKeyReplacesInPlace(t *testing.T) {
	set, err := ParseExplanationSet([]byte(`{"a": [{"term": "x", "coefficient": 1}], "b": [], "a": [{"term": "y", "coefficient": 1}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := set.Categories(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Categories() = %v", got)
	}
	terms, _ := set.Lookup("a")
	if len(terms) != 1 || terms[0].Term != "y" {
		t.Errorf("a = %v, want the later value", terms)
	}
}

func TestExplanationSet_MarshalJSONKeepsOrder(t *testing.T) {
	var set ExplanationSet
	set.Add("zeta", TermWeight{Term: "z", Coefficient: 0.5})
	set.Add("alpha")
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"zeta":[{"term":"z","coefficient":0.5}],"alpha":[]}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestExplanationsFromFlags(t *testing.T) {
	flags := []Flag{
		{FlagType: "profanity", Score: 0.9, Details: &FlagDetails{Explanation: []TermWeight{{Term: "darn", Coefficient: 0.6}}}},
		{FlagType: "harassment", Score: 0.4},
		{FlagType: "profanity", Score: 0.5, Details: &FlagDetails{Explanation: []TermWeight{{Term: "heck", Coefficient: 0.2}}}},
	}
	set := ExplanationsFromFlags(flags)
	if got := set.Categories(); !reflect.DeepEqual(got, []string{"profanity", "harassment"}) {
		t.Fatalf("Categories() = %v", got)
	}
	terms, _ := set.Lookup("profanity")
	if len(terms) != 2 || terms[1].Term != "heck" {
		t.Errorf("profanity terms = %v", terms)
	}
}

func TestTermWeight_Positive(t *testing.T) {
	if (TermWeight{Coefficient: 0}).Positive() {
		t.Error("zero coefficient should not be positive")
	}
	if (TermWeight{Coefficient: -0.2}).Positive() {
		t.Error("negative coefficient should not be positive")
	}
	if !(TermWeight{Coefficient: 0.01}).Positive() {
		t.Error("0.01 should be positive")
	}
}
