package models

import (
	"encoding/json"
	"sort"
)

// Metric series names produced by the backend.
const (
	MetricDailyProcessed     = "daily_processed"
	MetricFlagDistribution   = "flag_distribution"
	MetricStatusDistribution = "status_distribution"
	MetricAvgProcessingTime  = "avg_processing_time"
)

// MetricPoint is one dated value of a metric series. The value shape depends
// on the series: {"count": n}, a map of counts, or a bare number.
type MetricPoint struct {
	Date  string          `json:"date"`
	Value json.RawMessage `json:"value"`
}

// Metrics maps series name to its points, ordered by date.
type Metrics map[string][]MetricPoint

// MetricsResponse is the backend response for GET /api/metrics.
type MetricsResponse struct {
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	Metrics Metrics `json:"metrics"`
}

// RefreshResult is the response of the metrics-refresh endpoint.
type RefreshResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Totals sums a distribution series ({"key": count} per day) over all days.
// Points whose value is not a count map are skipped.
func (m Metrics) Totals(series string) map[string]int {
	out := make(map[string]int)
	for _, p := range m[series] {
		var counts map[string]float64
		if err := json.Unmarshal(p.Value, &counts); err != nil {
			continue
		}
		for k, v := range counts {
			out[k] += int(v)
		}
	}
	return out
}

// DailyCounts returns the dates and counts of the daily_processed series.
func (m Metrics) DailyCounts() (dates []string, counts []int) {
	points := append([]MetricPoint(nil), m[MetricDailyProcessed]...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	for _, p := range points {
		var v struct {
			Count float64 `json:"count"`
		}
		_ = json.Unmarshal(p.Value, &v)
		dates = append(dates, p.Date)
		counts = append(counts, int(v.Count))
	}
	return dates, counts
}
