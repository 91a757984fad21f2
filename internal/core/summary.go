package core

import "github.com/shopspring/decimal"

// RecentDays is the fixed length of Stats.RecentSeries.
const RecentDays = 7

// DayTotal is the summed amount of one calendar day.
type DayTotal struct {
	Date  Date            `json:"date" yaml:"date"`
	Total decimal.Decimal `json:"total" yaml:"total"`
}

// Stats is the time-windowed spending summary relative to Today.
type Stats struct {
	Today        Date            `json:"today" yaml:"today"`
	DailyTotal   decimal.Decimal `json:"daily_total" yaml:"daily_total"`
	WeeklyTotal  decimal.Decimal `json:"weekly_total" yaml:"weekly_total"`
	MonthlyTotal decimal.Decimal `json:"monthly_total" yaml:"monthly_total"`
	RecentSeries []DayTotal      `json:"recent_series" yaml:"recent_series"`
}
