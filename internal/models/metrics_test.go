package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestMetrics_Totals(t *testing.T) {
	var resp MetricsResponse
	payload := `{"success": true, "metrics": {
		"status_distribution": [
			{"date": "2024-01-01", "value": {"pending": 3, "approved": 10}},
			{"date": "2024-01-02", "value": {"pending": 2, "rejected": 4}},
			{"date": "2024-01-03", "value": {}}
		],
		"avg_processing_time": [{"date": "2024-01-01", "value": 0.4}]
	}}`
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatal(err)
	}
	got := resp.Metrics.Totals(MetricStatusDistribution)
	want := map[string]int{"pending": 5, "approved": 10, "rejected": 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Totals = %v, want %v", got, want)
	}
	if n := len(resp.Metrics.Totals(MetricAvgProcessingTime)); n != 0 {
		t.Errorf("scalar series should yield no totals, got %d keys", n)
	}
}

func TestMetrics_DailyCountsSortedByDate(t *testing.T) {
	m := Metrics{MetricDailyProcessed: {
		{Date: "2024-01-03", Value: json.RawMessage(`{"count": 7}`)},
		{Date: "2024-01-01", Value: json.RawMessage(`{"count": 120}`)},
		{Date: "2024-01-02", Value: json.RawMessage(`{"count": 0}`)},
	}}
	dates, counts := m.DailyCounts()
	if !reflect.DeepEqual(dates, []string{"2024-01-01", "2024-01-02", "2024-01-03"}) {
		t.Errorf("dates = %v", dates)
	}
	if !reflect.DeepEqual(counts, []int{120, 0, 7}) {
		t.Errorf("counts = %v", counts)
	}
}
