package analytics

import (
	"testing"
	"time"

	"github.com/expenseer/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(title string, amount float64, category string, date, createdAt time.Time) types.ExpenseRecord {
	return types.ExpenseRecord{
		Title:        title,
		Amount:       amount,
		CategoryName: category,
		Status:       types.StatusPending,
		Date:         date,
		CreatedAt:    createdAt,
	}
}

func TestCategoryBreakdownSplitsEvenly(t *testing.T) {
	now := time.Now()
	records := []types.ExpenseRecord{
		record("Lunch", 10, "Food", now, now),
		record("Dinner", 20, "Food", now, now),
		record("Flight", 30, "Travel", now, now),
	}

	breakdown := CategoryBreakdown(records)
	require.Len(t, breakdown, 2)

	// Food and Travel both total 30 of a 60 grand total. Ties keep
	// name order, so Food ranks first.
	assert.Equal(t, "Food", breakdown[0].CategoryName)

	byName := map[string]types.CategoryBreakdown{}
	for _, entry := range breakdown {
		byName[entry.CategoryName] = entry
	}

	food := byName["Food"]
	assert.Equal(t, 30.0, food.TotalAmount)
	assert.Equal(t, 2, food.Count)
	assert.Equal(t, 50.0, food.Percentage)

	travel := byName["Travel"]
	assert.Equal(t, 30.0, travel.TotalAmount)
	assert.Equal(t, 1, travel.Count)
	assert.Equal(t, 50.0, travel.Percentage)
}

func TestCategoryBreakdownRankedDescending(t *testing.T) {
	now := time.Now()
	records := []types.ExpenseRecord{
		record("Pens", 5, "Office", now, now),
		record("Hotel", 500, "Travel", now, now),
		record("Lunch", 12.50, "Food", now, now),
		record("Taxi", 42, "Travel", now, now),
	}

	breakdown := CategoryBreakdown(records)
	require.Len(t, breakdown, 3)
	assert.Equal(t, "Travel", breakdown[0].CategoryName)
	assert.Equal(t, "Food", breakdown[1].CategoryName)
	assert.Equal(t, "Office", breakdown[2].CategoryName)

	for i := 1; i < len(breakdown); i++ {
		assert.GreaterOrEqual(t, breakdown[i-1].TotalAmount, breakdown[i].TotalAmount)
	}
}

func TestCategoryBreakdownTotalsMatchGrandTotal(t *testing.T) {
	now := time.Now()
	records := []types.ExpenseRecord{
		record("a", 19.99, "Food", now, now),
		record("b", 0.01, "Food", now, now),
		record("c", 33.33, "Travel", now, now),
		record("d", 66.67, "Office", now, now),
		record("e", 7.77, "Software", now, now),
	}

	breakdown := CategoryBreakdown(records)

	var totalSum, percentageSum float64
	for _, entry := range breakdown {
		totalSum += entry.TotalAmount
		percentageSum += entry.Percentage
	}
	assert.InDelta(t, 127.77, totalSum, 1e-9)
	assert.InDelta(t, 100.0, percentageSum, 0.01)
}

func TestCategoryBreakdownZeroGrandTotal(t *testing.T) {
	now := time.Now()
	records := []types.ExpenseRecord{
		record("void", 0, "Food", now, now),
		record("nil", 0, "Travel", now, now),
	}

	breakdown := CategoryBreakdown(records)
	require.Len(t, breakdown, 2)
	for _, entry := range breakdown {
		assert.Equal(t, 0.0, entry.Percentage)
	}
}

func TestCategoryBreakdownEmpty(t *testing.T) {
	breakdown := CategoryBreakdown(nil)
	assert.Empty(t, breakdown)
}

func TestMonthlyTrendsBucketsAndOrder(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	created := now
	records := []types.ExpenseRecord{
		record("march", 100, "Food", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), created),
		record("may-1", 40, "Food", time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), created),
		record("may-2", 60, "Travel", time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), created),
		record("old", 999, "Food", time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC), created),
	}

	trends := MonthlyTrends(records, now, 6)
	require.Len(t, trends, 2)

	assert.Equal(t, "2025-03", trends[0].Month)
	assert.Equal(t, 100.0, trends[0].TotalAmount)
	assert.Equal(t, 1, trends[0].Count)

	assert.Equal(t, "2025-05", trends[1].Month)
	assert.Equal(t, 100.0, trends[1].TotalAmount)
	assert.Equal(t, 2, trends[1].Count)
}

func TestMonthlyTrendsWindowIsDayBased(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	start := now.Add(-6 * 30 * 24 * time.Hour) // 2024-12-17

	records := []types.ExpenseRecord{
		record("on-boundary", 10, "Food", start, now),
		record("just-outside", 20, "Food", start.Add(-time.Second), now),
	}

	trends := MonthlyTrends(records, now, 6)
	require.Len(t, trends, 1)
	assert.Equal(t, "2024-12", trends[0].Month)
	assert.Equal(t, 10.0, trends[0].TotalAmount)
	assert.Equal(t, 1, trends[0].Count)
}

func TestMonthlyTrendsNeverEmitsZeroMonths(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	records := []types.ExpenseRecord{
		record("jan", 10, "Food", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), now),
		record("jun", 10, "Food", time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC), now),
	}

	// February through May have no expenses and must be absent, not zero.
	trends := MonthlyTrends(records, now, 6)
	require.Len(t, trends, 2)
	for _, trend := range trends {
		assert.Greater(t, trend.Count, 0)
	}
}

func TestStatusBreakdownOmitsZeroStatuses(t *testing.T) {
	now := time.Now()
	records := []types.ExpenseRecord{
		{Status: types.StatusPending, Date: now, CreatedAt: now},
		{Status: types.StatusPending, Date: now, CreatedAt: now},
		{Status: types.StatusApproved, Date: now, CreatedAt: now},
	}

	breakdown := StatusBreakdown(records)
	assert.Equal(t, map[string]int{
		types.StatusPending:  2,
		types.StatusApproved: 1,
	}, breakdown)
	_, present := breakdown[types.StatusRejected]
	assert.False(t, present)
}

func TestRecentExpensesOrderedByCreation(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// Business dates deliberately disagree with creation order.
	records := []types.ExpenseRecord{
		record("first-created", 1, "Food", base.AddDate(0, 0, 9), base),
		record("second-created", 2, "Food", base.AddDate(0, 0, 1), base.Add(time.Hour)),
		record("third-created", 3, "Food", base.AddDate(0, 0, 5), base.Add(2*time.Hour)),
	}

	recent := RecentExpenses(records, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "third-created", recent[0].Title)
	assert.Equal(t, "second-created", recent[1].Title)

	assert.Equal(t, base.Add(2*time.Hour).Format(time.RFC3339), recent[0].CreatedAt)
}

func TestRecentExpensesDefaultLimit(t *testing.T) {
	base := time.Now()
	records := make([]types.ExpenseRecord, 0, 15)
	for i := 0; i < 15; i++ {
		records = append(records, record("e", 1, "Food", base, base.Add(time.Duration(i)*time.Minute)))
	}

	recent := RecentExpenses(records, 0)
	assert.Len(t, recent, DefaultRecentLimit)
}

func TestSnapshotEmpty(t *testing.T) {
	snapshot := Snapshot(nil, time.Now())

	assert.Equal(t, 0.0, snapshot.TotalExpenses)
	assert.Equal(t, 0, snapshot.TotalCount)
	assert.Equal(t, 0.0, snapshot.AverageAmount)
	assert.Empty(t, snapshot.TopCategories)
	assert.Empty(t, snapshot.MonthlyTrends)
	assert.Empty(t, snapshot.StatusBreakdown)
	assert.Empty(t, snapshot.RecentExpenses)
}

func TestSnapshotTotalsAndAverage(t *testing.T) {
	now := time.Now()
	records := []types.ExpenseRecord{
		record("a", 10.10, "Food", now, now),
		record("b", 20.20, "Food", now, now),
		record("c", 30.30, "Travel", now, now),
	}

	snapshot := Snapshot(records, now)
	assert.InDelta(t, 60.60, snapshot.TotalExpenses, 1e-9)
	assert.Equal(t, 3, snapshot.TotalCount)
	assert.InDelta(t, 20.20, snapshot.AverageAmount, 1e-9)
}

func TestSnapshotAverageZeroOnlyWhenCountZero(t *testing.T) {
	now := time.Now()

	empty := Snapshot(nil, now)
	assert.Equal(t, 0.0, empty.AverageAmount)

	nonEmpty := Snapshot([]types.ExpenseRecord{record("a", 0.01, "Food", now, now)}, now)
	assert.Equal(t, 1, nonEmpty.TotalCount)
	assert.InDelta(t, 0.01, nonEmpty.AverageAmount, 1e-9)
}
