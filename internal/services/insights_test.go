package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/expenseer/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter scripts the model reply so insight behavior can be
// exercised without a live endpoint.
type fakeCompleter struct {
	reply      string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string, _ float32, _ int) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func insightRecords() []types.ExpenseRecord {
	now := time.Now()
	return []types.ExpenseRecord{
		{Title: "Lunch", Amount: 12.50, CategoryName: "Food", Status: types.StatusApproved, Date: now, CreatedAt: now},
		{Title: "Taxi", Amount: 30, CategoryName: "Travel", Status: types.StatusPending, Date: now, CreatedAt: now},
	}
}

func TestAnalyzeExpensesEmpty(t *testing.T) {
	svc := NewInsightService(&fakeCompleter{})
	out := svc.AnalyzeExpenses(context.Background(), nil, "alice")
	assert.Equal(t, "No expenses found for analysis.", out)
}

func TestAnalyzeExpensesDegradesOnError(t *testing.T) {
	svc := NewInsightService(&fakeCompleter{err: errors.New("connection refused")})
	out := svc.AnalyzeExpenses(context.Background(), insightRecords(), "alice")
	assert.Equal(t, "Unable to generate AI insights at this time. Error: connection refused", out)
}

func TestAnalyzeExpensesPromptCarriesSpending(t *testing.T) {
	completer := &fakeCompleter{reply: "Spend less on taxis."}
	svc := NewInsightService(completer)

	out := svc.AnalyzeExpenses(context.Background(), insightRecords(), "alice")
	require.Equal(t, "Spend less on taxis.", out)

	assert.Contains(t, completer.lastUser, "alice")
	assert.Contains(t, completer.lastUser, "Food")
	assert.Contains(t, completer.lastUser, "42.50")
}

func TestPredictCategoryMatchesKnownLabel(t *testing.T) {
	svc := NewInsightService(&fakeCompleter{reply: "  meals & entertainment \n"})
	got := svc.PredictCategory(context.Background(), "Team lunch", 45, "pizza")
	assert.Equal(t, "Meals & Entertainment", got)
}

func TestPredictCategoryFallsBack(t *testing.T) {
	tests := []struct {
		name      string
		completer *fakeCompleter
	}{
		{"completion error", &fakeCompleter{err: errors.New("timeout")}},
		{"unknown label", &fakeCompleter{reply: "Cryptocurrency"}},
		{"free-form answer", &fakeCompleter{reply: "I think this is probably Travel."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewInsightService(tt.completer)
			got := svc.PredictCategory(context.Background(), "Misc", 10, "")
			assert.Equal(t, DefaultCategory, got)
		})
	}
}

func TestBudgetRecommendationsEmpty(t *testing.T) {
	svc := NewInsightService(&fakeCompleter{})
	out := svc.BudgetRecommendations(context.Background(), nil, 1000)
	assert.Equal(t, "No expense data available for budget recommendations.", out)
}

func TestBudgetRecommendationsDegradesOnError(t *testing.T) {
	svc := NewInsightService(&fakeCompleter{err: errors.New("rate limited")})
	out := svc.BudgetRecommendations(context.Background(), insightRecords(), 1000)
	assert.True(t, strings.HasPrefix(out, "Unable to generate budget recommendations. Error:"), out)
}

func TestTotalAmount(t *testing.T) {
	total := TotalAmount(insightRecords())
	assert.Equal(t, "42.5", total.String())
}
