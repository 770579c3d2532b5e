package types

// CategoryBreakdown is the aggregated spend for a single category,
// ranked within a breakdown by total amount.
type CategoryBreakdown struct {
	// CategoryName is the resolved category name.
	CategoryName string `json:"category_name"`

	// TotalAmount is the summed amount of all expenses in the category.
	TotalAmount float64 `json:"total_amount"`

	// Percentage is the category's share of the grand total, rounded
	// half-up to two decimal places. Zero when the grand total is zero.
	Percentage float64 `json:"percentage"`

	// Count is the number of expenses in the category.
	Count int `json:"count"`
}

// MonthlyTrend is the aggregated spend for one calendar month.
type MonthlyTrend struct {
	// Month is the year-month bucket in "YYYY-MM" form, derived from the
	// business date of the expenses.
	Month string `json:"month"`

	// TotalAmount is the summed amount of expenses in the month.
	TotalAmount float64 `json:"total_amount"`

	// Count is the number of expenses in the month.
	Count int `json:"count"`
}

// RecentExpense is a flattened expense row for the recent-activity list.
// Both date fields are rendered as RFC 3339 strings.
type RecentExpense struct {
	ID        int     `json:"id"`
	Title     string  `json:"title"`
	Amount    float64 `json:"amount"`
	Category  string  `json:"category"`
	Status    string  `json:"status"`
	Date      string  `json:"date"`
	CreatedAt string  `json:"created_at"`
}

// AnalyticsSnapshot is the composite analytics view. It is derived on
// every request from current expense rows and never persisted.
type AnalyticsSnapshot struct {
	// TotalExpenses is the summed amount over all matching expenses.
	TotalExpenses float64 `json:"total_expenses"`

	// TotalCount is the number of matching expenses.
	TotalCount int `json:"total_count"`

	// AverageAmount is TotalExpenses / TotalCount, or zero when there
	// are no expenses.
	AverageAmount float64 `json:"average_amount"`

	// TopCategories is the category breakdown ordered by total amount
	// descending.
	TopCategories []CategoryBreakdown `json:"top_categories"`

	// MonthlyTrends is the trailing-window trend series, chronological.
	MonthlyTrends []MonthlyTrend `json:"monthly_trends"`

	// StatusBreakdown maps status label to expense count. Statuses with
	// no expenses are absent.
	StatusBreakdown map[string]int `json:"status_breakdown"`

	// RecentExpenses lists the most recently created expenses, with its
	// own limit independent of the other aggregates.
	RecentExpenses []RecentExpense `json:"recent_expenses"`
}
