// Package stats computes time-windowed spending totals over finance records.
package stats

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"diarybook/internal/core"
)

// RecordSource returns every stored finance record.
type RecordSource interface {
	GetAll(ctx context.Context) ([]core.FinanceRecord, error)
}

// Aggregator rescans its source on every call; nothing is cached between calls.
type Aggregator struct {
	source RecordSource
	logger *slog.Logger
}

// NewAggregator returns an Aggregator reading from source.
func NewAggregator(source RecordSource, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{source: source, logger: logger}
}

// Stats computes the summary relative to today.
func (a *Aggregator) Stats(ctx context.Context, today core.Date) (core.Stats, error) {
	records, err := a.source.GetAll(ctx)
	if err != nil {
		return core.Stats{}, err
	}
	s := Compute(records, today)
	a.logger.DebugContext(ctx, "Computed stats",
		"today", today.String(),
		"records", len(records),
		"daily_total", s.DailyTotal.String())
	return s, nil
}

// Compute buckets amounts by calendar day and sums the buckets for the day,
// week and month containing today. The week starts on Sunday. Weekly and
// monthly totals include every bucket on or after their start, so records
// dated after today are counted. RecentSeries holds the RecentDays days
// ending today, oldest first, with zero for days without records.
func Compute(records []core.FinanceRecord, today core.Date) core.Stats {
	// Buckets are keyed by YYYY-MM-DD.
	buckets := make(map[string]decimal.Decimal)
	days := make(map[string]core.Date)
	for _, r := range records {
		key := r.Date.String()
		buckets[key] = buckets[key].Add(r.Amount)
		days[key] = r.Date
	}

	weekStart := today.WeekStart()
	monthStart := today.MonthStart()

	s := core.Stats{
		Today:        today,
		DailyTotal:   decimal.Zero,
		WeeklyTotal:  decimal.Zero,
		MonthlyTotal: decimal.Zero,
	}
	if total, ok := buckets[today.String()]; ok {
		s.DailyTotal = total
	}
	for key, total := range buckets {
		day := days[key]
		if !day.Before(weekStart) {
			s.WeeklyTotal = s.WeeklyTotal.Add(total)
		}
		if !day.Before(monthStart) {
			s.MonthlyTotal = s.MonthlyTotal.Add(total)
		}
	}

	s.RecentSeries = make([]core.DayTotal, 0, core.RecentDays)
	for i := core.RecentDays - 1; i >= 0; i-- {
		day := today.AddDays(-i)
		total, ok := buckets[day.String()]
		if !ok {
			total = decimal.Zero
		}
		s.RecentSeries = append(s.RecentSeries, core.DayTotal{Date: day, Total: total})
	}
	return s
}
