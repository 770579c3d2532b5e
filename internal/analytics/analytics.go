// Package analytics computes aggregate views over expense records:
// category breakdowns, monthly trends, status counts and composite
// snapshots. All functions are pure; callers fetch the (already
// user-filtered) records and pass them in. Monetary sums accumulate in
// fixed-point decimals and only convert to floats at the boundary.
package analytics

import (
	"sort"
	"time"

	"github.com/expenseer/apiserver/types"
	"github.com/shopspring/decimal"
)

const (
	// DefaultTrendMonths is the trailing window for monthly trends.
	DefaultTrendMonths = 6

	// DefaultRecentLimit is the number of rows in the recent list.
	DefaultRecentLimit = 10
)

// monthLayout renders a time as its "YYYY-MM" bucket key.
const monthLayout = "2006-01"

var oneHundred = decimal.NewFromInt(100)

// CategoryBreakdown groups the records by category name and computes the
// per-category total, count and share of the grand total. Percentages are
// rounded half-up to two decimal places and are zero when the grand total
// is zero. The result is ordered by total amount descending; ties keep
// the grouping order (category names ascending).
func CategoryBreakdown(records []types.ExpenseRecord) []types.CategoryBreakdown {
	type group struct {
		total decimal.Decimal
		count int
	}

	groups := make(map[string]*group)
	grand := decimal.Zero
	for _, record := range records {
		amount := decimal.NewFromFloat(record.Amount)
		grand = grand.Add(amount)

		g, ok := groups[record.CategoryName]
		if !ok {
			g = &group{}
			groups[record.CategoryName] = g
		}
		g.total = g.total.Add(amount)
		g.count++
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	breakdown := make([]types.CategoryBreakdown, 0, len(names))
	for _, name := range names {
		g := groups[name]
		percentage := decimal.Zero
		if grand.IsPositive() {
			percentage = g.total.Div(grand).Mul(oneHundred).Round(2)
		}
		breakdown = append(breakdown, types.CategoryBreakdown{
			CategoryName: name,
			TotalAmount:  g.total.InexactFloat64(),
			Percentage:   percentage.InexactFloat64(),
			Count:        g.count,
		})
	}

	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].TotalAmount > breakdown[j].TotalAmount
	})
	return breakdown
}

// MonthlyTrends buckets records by the calendar month of their business
// date over a trailing window of months*30 days ending at now. The
// window is day-based, not calendar-month based. Months with no expenses
// are not emitted. The series is ordered chronologically ascending.
func MonthlyTrends(records []types.ExpenseRecord, now time.Time, months int) []types.MonthlyTrend {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	start := now.Add(-time.Duration(months) * 30 * 24 * time.Hour)

	type bucket struct {
		total decimal.Decimal
		count int
	}

	buckets := make(map[string]*bucket)
	for _, record := range records {
		if record.Date.Before(start) {
			continue
		}
		key := record.Date.Format(monthLayout)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.total = b.total.Add(decimal.NewFromFloat(record.Amount))
		b.count++
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	trends := make([]types.MonthlyTrend, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		trends = append(trends, types.MonthlyTrend{
			Month:       key,
			TotalAmount: b.total.InexactFloat64(),
			Count:       b.count,
		})
	}
	return trends
}

// StatusBreakdown counts records per status label. Statuses with no
// records are absent from the map.
func StatusBreakdown(records []types.ExpenseRecord) map[string]int {
	breakdown := make(map[string]int)
	for _, record := range records {
		breakdown[record.Status]++
	}
	return breakdown
}

// RecentExpenses returns the limit most recently created records,
// ordered by creation time descending and flattened to plain text
// fields. Ordering follows record creation, not the business date.
func RecentExpenses(records []types.ExpenseRecord, limit int) []types.RecentExpense {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	ordered := make([]types.ExpenseRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	recent := make([]types.RecentExpense, 0, len(ordered))
	for _, record := range ordered {
		recent = append(recent, types.RecentExpense{
			ID:        record.ID,
			Title:     record.Title,
			Amount:    record.Amount,
			Category:  record.CategoryName,
			Status:    record.Status,
			Date:      record.Date.Format(time.RFC3339),
			CreatedAt: record.CreatedAt.Format(time.RFC3339),
		})
	}
	return recent
}

// Snapshot bundles the totals and all four aggregates into the composite
// analytics view. The average is zero when there are no records; the
// recent list uses its own limit independent of the other aggregates.
func Snapshot(records []types.ExpenseRecord, now time.Time) types.AnalyticsSnapshot {
	total := decimal.Zero
	for _, record := range records {
		total = total.Add(decimal.NewFromFloat(record.Amount))
	}

	count := len(records)
	average := decimal.Zero
	if count > 0 {
		average = total.Div(decimal.NewFromInt(int64(count)))
	}

	return types.AnalyticsSnapshot{
		TotalExpenses:   total.InexactFloat64(),
		TotalCount:      count,
		AverageAmount:   average.InexactFloat64(),
		TopCategories:   CategoryBreakdown(records),
		MonthlyTrends:   MonthlyTrends(records, now, DefaultTrendMonths),
		StatusBreakdown: StatusBreakdown(records),
		RecentExpenses:  RecentExpenses(records, DefaultRecentLimit),
	}
}
