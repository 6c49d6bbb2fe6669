package highlight

import (
	"testing"

	"github.com/hyperjump/modboard/internal/models"
)

func TestBuildTermIndex_onlyPositiveTerms(t *testing.T) {
	var s models.ExplanationSet
	s.Add("profanity", tw("darn", 0.5), tw("nice", -0.3), tw("ok", 0))
	idx, err := BuildTermIndex(s, LastWins)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 1 {
		t.Errorf("Len() = %d, want 1", idx.Len())
	}
	if _, ok := idx.Category("nice"); ok {
		t.Error("negative term should not be indexed")
	}
	if c, ok := idx.Category("DARN"); !ok || c != "profanity" {
		t.Errorf("Category(DARN) = %q, %v", c, ok)
	}
}

func TestBuildTermIndex_byLengthOrder(t *testing.T) {
	var s models.ExplanationSet
	s.Add("a", tw("hate", 1), tw("hate speech", 1), tw("kill", 1))
	s.Add("b", tw("go", 1))
	idx, err := BuildTermIndex(s, LastWins)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, it := range idx.byLength() {
		got = append(got, it.term)
	}
	want := []string{"hate speech", "hate", "kill", "go"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byLength() = %v, want %v", got, want)
		}
	}
}

func TestParseCollisionPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    CollisionPolicy
		wantErr bool
	}{
		{"", LastWins, false},
		{"last", LastWins, false},
		{" FIRST ", FirstWins, false},
		{"random", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCollisionPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCollisionPolicy(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseCollisionPolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
