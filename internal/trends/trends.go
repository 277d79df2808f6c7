// Package trends rolls up violation records near a point into monthly and
// per-borough summaries.
package trends

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/model"
	"github.com/parkscout-nyc/parkscout/internal/store"
)

// MonthCount is the violation count for one calendar month.
type MonthCount struct {
	Month string `json:"month"` // "2026-03"
	Count int    `json:"count"`
}

// BoroughCount is the violation count attributed to one borough.
type BoroughCount struct {
	Borough geo.Borough `json:"borough"`
	Count   int         `json:"count"`
}

// Report summarizes violations within a search radius.
type Report struct {
	Total         int            `json:"total"`
	TotalFines    float64        `json:"total_fines"`
	Monthly       []MonthCount   `json:"monthly"`
	ByBorough     []BoroughCount `json:"by_borough"`
	PercentChange *float64       `json:"percent_change,omitempty"`
}

// Analyzer builds violation reports from stored records.
type Analyzer struct {
	store      store.Store
	classifier *geo.Classifier
}

// NewAnalyzer wires the analyzer to a store and borough classifier.
func NewAnalyzer(st store.Store, classifier *geo.Classifier) *Analyzer {
	return &Analyzer{store: st, classifier: classifier}
}

// Analyze ranks violations around the query center and rolls them up. An
// empty result set yields a zero report, not an error.
func (a *Analyzer) Analyze(ctx context.Context, q geo.Query) (*Report, error) {
	candidates, err := a.store.ViolationsWithin(ctx, q.Box())
	if err != nil {
		return nil, eris.Wrap(err, "trends: load violations")
	}

	ranked := geo.FilterByRadius(candidates, q, false)
	return a.build(ranked), nil
}

func (a *Analyzer) build(ranked []geo.Ranked[model.Violation]) *Report {
	report := &Report{Total: len(ranked)}

	months := make(map[string]int)
	boroughs := make(map[geo.Borough]int)
	for _, r := range ranked {
		v := r.Record
		report.TotalFines += v.FineAmount
		months[v.IssuedAt.Format("2006-01")]++
		boroughs[a.classifier.Classify(v.Location())]++
	}

	for month, count := range months {
		report.Monthly = append(report.Monthly, MonthCount{Month: month, Count: count})
	}
	sort.Slice(report.Monthly, func(i, j int) bool {
		return report.Monthly[i].Month < report.Monthly[j].Month
	})

	for borough, count := range boroughs {
		report.ByBorough = append(report.ByBorough, BoroughCount{Borough: borough, Count: count})
	}
	sort.Slice(report.ByBorough, func(i, j int) bool {
		if report.ByBorough[i].Count != report.ByBorough[j].Count {
			return report.ByBorough[i].Count > report.ByBorough[j].Count
		}
		return report.ByBorough[i].Borough < report.ByBorough[j].Borough
	})

	report.PercentChange = percentChange(report.Monthly)
	return report
}

// percentChange compares the first and last reported months. It is nil when
// fewer than two months are present or the first month has no violations.
func percentChange(monthly []MonthCount) *float64 {
	if len(monthly) < 2 {
		return nil
	}
	first := monthly[0].Count
	last := monthly[len(monthly)-1].Count
	if first == 0 {
		return nil
	}
	change := float64(last-first) / float64(first) * 100
	return &change
}
