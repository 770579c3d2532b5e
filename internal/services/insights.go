package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/expenseer/apiserver/types"
	"github.com/shopspring/decimal"
)

// Completer produces a text completion for a system+user prompt pair.
// It is satisfied by the ai.Client and by test fakes.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

// DefaultCategory is the prediction fallback when the remote service
// fails or an unexpected label comes back.
const DefaultCategory = "Miscellaneous"

// knownCategories are the labels the prediction prompt offers.
var knownCategories = []string{
	"Travel",
	"Meals & Entertainment",
	"Office Supplies",
	"Software & Subscriptions",
	"Transportation",
	"Utilities",
	"Marketing & Advertising",
	"Professional Services",
	"Training & Education",
	DefaultCategory,
}

// InsightService generates narrative financial insight from expense data.
// Every exported method degrades to a descriptive string on remote
// failure instead of returning an error: for a user-facing insights
// feature, some response matters more than a correct one.
type InsightService struct {
	completer Completer
}

func NewInsightService(completer Completer) *InsightService {
	return &InsightService{completer: completer}
}

// AnalyzeExpenses summarizes a user's spending. The returned string is
// never empty and never accompanied by an error.
func (s *InsightService) AnalyzeExpenses(ctx context.Context, records []types.ExpenseRecord, userName string) string {
	if len(records) == 0 {
		return "No expenses found for analysis."
	}

	text, err := s.analyze(ctx, records, userName)
	if err != nil {
		return fmt.Sprintf("Unable to generate AI insights at this time. Error: %v", err)
	}
	return text
}

func (s *InsightService) analyze(ctx context.Context, records []types.ExpenseRecord, userName string) (string, error) {
	total := decimal.Zero
	details := make([]map[string]any, 0, len(records))
	for _, record := range records {
		total = total.Add(decimal.NewFromFloat(record.Amount))
		description := record.Description
		if description == "" {
			description = "No description"
		}
		details = append(details, map[string]any{
			"title":       record.Title,
			"amount":      record.Amount,
			"category":    record.CategoryName,
			"date":        record.Date.Format("2006-01-02"),
			"description": description,
		})
	}

	detailsJSON, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Analyze the following expense data for %s and provide financial insights.

Total expenses: $%s
Number of expenses: %d

Expense Details:
%s

Please provide:
1. A summary of spending patterns
2. Top spending categories and amounts
3. 2-3 specific tips to reduce overspending
4. Budget recommendations for the next month
5. Any unusual spending patterns or concerns

Format your response in a clear, actionable manner suitable for a business expense management system.`,
		userName, total.StringFixed(2), len(records), detailsJSON)

	const system = "You are a financial advisor specializing in expense analysis and budget optimization. Provide clear, actionable insights based on expense data."
	return s.completer.Complete(ctx, system, prompt, 0.7, 1000)
}

// PredictCategory guesses the category of an expense from its title,
// amount and description. Failures and unknown labels fall back to
// DefaultCategory.
func (s *InsightService) PredictCategory(ctx context.Context, title string, amount float64, description string) string {
	prompt := fmt.Sprintf(`Based on the following expense information, predict the most appropriate category:

Title: %s
Amount: $%.2f
Description: %s

Choose from these common expense categories:
- %s

Respond with only the category name.`,
		title, amount, description, strings.Join(knownCategories, "\n- "))

	const system = "You are an expense categorization expert. Respond with only the category name."
	text, err := s.completer.Complete(ctx, system, prompt, 0.3, 50)
	if err != nil {
		return DefaultCategory
	}

	label := strings.TrimSpace(text)
	for _, known := range knownCategories {
		if strings.EqualFold(label, known) {
			return known
		}
	}
	return DefaultCategory
}

// BudgetRecommendations advises on the remaining monthly budget given
// recent spending.
func (s *InsightService) BudgetRecommendations(ctx context.Context, records []types.ExpenseRecord, monthlyBudget float64) string {
	if len(records) == 0 {
		return "No expense data available for budget recommendations."
	}

	text, err := s.recommend(ctx, records, monthlyBudget)
	if err != nil {
		return fmt.Sprintf("Unable to generate budget recommendations. Error: %v", err)
	}
	return text
}

func (s *InsightService) recommend(ctx context.Context, records []types.ExpenseRecord, monthlyBudget float64) (string, error) {
	budget := decimal.NewFromFloat(monthlyBudget)
	spent := TotalAmount(records)
	remaining := budget.Sub(spent)

	details := make([]map[string]any, 0, len(records))
	for _, record := range records {
		details = append(details, map[string]any{
			"title":    record.Title,
			"amount":   record.Amount,
			"category": record.CategoryName,
		})
	}
	detailsJSON, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Generate budget recommendations based on the following data:

Monthly Budget: $%s
Total Spent: $%s
Remaining Budget: $%s

Recent Expenses:
%s

Provide:
1. Budget status assessment
2. Recommendations for remaining budget allocation
3. Suggestions for cost-cutting if over budget
4. Next month's budget planning tips`,
		budget.StringFixed(2), spent.StringFixed(2), remaining.StringFixed(2), detailsJSON)

	const system = "You are a budget planning expert. Provide practical budget recommendations."
	return s.completer.Complete(ctx, system, prompt, 0.6, 800)
}

// TotalAmount sums record amounts in fixed point.
func TotalAmount(records []types.ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for _, record := range records {
		total = total.Add(decimal.NewFromFloat(record.Amount))
	}
	return total
}
