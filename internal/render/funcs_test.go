package render

import (
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/modboard/internal/models"
)

func TestFormatFlagType(t *testing.T) {
	tests := map[string]string{
		"hate_speech": "Hate Speech",
		"profanity":   "Profanity",
		"HATE_speech": "Hate Speech",
		"":            "",
		"self_harm_x": "Self Harm X",
	}
	for in, want := range tests {
		if got := FormatFlagType(in); got != want {
			t.Errorf("FormatFlagType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFlagColor(t *testing.T) {
	var missing *float64
	high := 0.95
	tests := []struct {
		score interface{}
		want  string
	}{
		{0.8, "text-danger"},
		{0.79, "text-warning"},
		{0.5, "text-warning"},
		{0.3, "text-info"},
		{0.29, "text-success"},
		{0.0, "text-success"},
		{0, "text-success"},
		{"0.6", "text-warning"},
		{&high, "text-danger"},
		{missing, "text-secondary"},
		{nil, "text-secondary"},
		{"n/a", "text-secondary"},
	}
	for _, tt := range tests {
		if got := FlagColor(tt.score); got != tt.want {
			t.Errorf("FlagColor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status interface{}
		want   string
	}{
		{"approved", "text-success"},
		{models.StatusRejected, "text-danger"},
		{"PENDING", "text-warning"},
		{"unknown", "text-info"},
		{"", "text-secondary"},
		{nil, "text-secondary"},
	}
	for _, tt := range tests {
		if got := StatusColor(tt.status); got != tt.want {
			t.Errorf("StatusColor(%v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestFormatDateAndTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)
	if got := FormatDate(ts); got != "2024-03-01" {
		t.Errorf("FormatDate(time) = %q", got)
	}
	if got := FormatTimestamp(models.Timestamp{Time: ts}); got != "2024-03-01 14:05:09" {
		t.Errorf("FormatTimestamp(Timestamp) = %q", got)
	}
	if got := FormatTimestamp("2024-03-01T14:05:09.123456"); got != "2024-03-01 14:05:09" {
		t.Errorf("FormatTimestamp(string) = %q", got)
	}
	if got := FormatDate(ts, "02/01/2006"); got != "01/03/2024" {
		t.Errorf("FormatDate(custom) = %q", got)
	}
	if got := FormatDate("not a date"); got != "not a date" {
		t.Errorf("unparseable strings should pass through, got %q", got)
	}
	if got := FormatDate(models.Timestamp{}); got != "" {
		t.Errorf("zero time should render empty, got %q", got)
	}
	if got := FormatDate(nil); got != "" {
		t.Errorf("nil should render empty, got %q", got)
	}
}

func TestTruncateText(t *testing.T) {
	if got := TruncateText(5, "hello world"); got != "hello..." {
		t.Errorf("got %q", got)
	}
	if got := TruncateText(100, "short"); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := TruncateText(3, ""); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestToJSON(t *testing.T) {
	got, err := ToJSON(ChartData{Dates: []string{"2024-03-01"}, Processed: []int{3}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), `"dates":["2024-03-01"]`) {
		t.Errorf("got %s", got)
	}
}

func TestFormatScore(t *testing.T) {
	var missing *float64
	if got := FormatScore(0.456); got != "0.46" {
		t.Errorf("got %q", got)
	}
	if got := FormatScore(missing); got != "n/a" {
		t.Errorf("got %q", got)
	}
}

func TestNow(t *testing.T) {
	if _, err := time.Parse("2006-01-02", Now()); err != nil {
		t.Errorf("Now() = %q: %v", Now(), err)
	}
}
