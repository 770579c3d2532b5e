package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/expenseer/apiserver/internal/analytics"
	"github.com/expenseer/apiserver/internal/mq"
	"github.com/expenseer/apiserver/internal/storage"
	"github.com/expenseer/apiserver/types"
)

// ExpenseRepository defines persistence operations for expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, expense types.Expense) (types.Expense, error)
	Get(ctx context.Context, id int) (types.Expense, error)
	ListByUser(ctx context.Context, userID, skip, limit int) ([]types.Expense, error)
	ListAll(ctx context.Context, skip, limit int) ([]types.Expense, error)
	ListByStatus(ctx context.Context, status string, skip, limit int) ([]types.Expense, error)
	UpdateStatus(ctx context.Context, id int, status string) error
	SetReceipt(ctx context.Context, id int, key, filename string) error
	Records(ctx context.Context, userID *int) ([]types.ExpenseRecord, error)
	RecentRecords(ctx context.Context, userID, days int) ([]types.ExpenseRecord, error)
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// ReviewEvent is published when a manager decides an expense.
type ReviewEvent struct {
	ExpenseID int       `json:"expense_id"`
	UserID    int       `json:"user_id"`
	Status    string    `json:"status"`
	ManagerID int       `json:"manager_id"`
	DecidedAt time.Time `json:"decided_at"`
}

// ExpenseService encapsulates expense use-cases: submission, listing,
// the review workflow and the derived analytics views. Event publishing
// and receipt storage are optional collaborators; a nil publisher or
// store disables the corresponding feature.
type ExpenseService struct {
	repo      ExpenseRepository
	publisher *mq.MQ
	channel   string
	receipts  *storage.Storage
}

func NewExpenseService(repo ExpenseRepository) *ExpenseService {
	return &ExpenseService{repo: repo}
}

// WithPublisher attaches a review-event publisher.
func (s *ExpenseService) WithPublisher(publisher *mq.MQ, channel string) *ExpenseService {
	s.publisher = publisher
	s.channel = channel
	return s
}

// WithReceiptStorage attaches an object store for receipt uploads.
func (s *ExpenseService) WithReceiptStorage(receipts *storage.Storage) *ExpenseService {
	s.receipts = receipts
	return s
}

func clampPagination(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return skip, limit
}

// Create submits a new expense. Status is always forced to pending
// regardless of what the caller supplied.
func (s *ExpenseService) Create(ctx context.Context, expense types.Expense) (types.Expense, error) {
	expense.Status = types.StatusPending
	return s.repo.Create(ctx, expense)
}

func (s *ExpenseService) Get(ctx context.Context, id int) (types.Expense, error) {
	return s.repo.Get(ctx, id)
}

func (s *ExpenseService) ListByUser(ctx context.Context, userID, skip, limit int) ([]types.Expense, error) {
	skip, limit = clampPagination(skip, limit)
	return s.repo.ListByUser(ctx, userID, skip, limit)
}

func (s *ExpenseService) ListAll(ctx context.Context, skip, limit int) ([]types.Expense, error) {
	skip, limit = clampPagination(skip, limit)
	return s.repo.ListAll(ctx, skip, limit)
}

func (s *ExpenseService) ListByStatus(ctx context.Context, status string, skip, limit int) ([]types.Expense, error) {
	skip, limit = clampPagination(skip, limit)
	return s.repo.ListByStatus(ctx, status, skip, limit)
}

// Approve marks the expense approved. Re-deciding an already decided
// expense overwrites the status again; the workflow is deliberately
// permissive about repeated decisions.
func (s *ExpenseService) Approve(ctx context.Context, expenseID, managerID int) error {
	return s.decide(ctx, expenseID, managerID, types.StatusApproved)
}

// Reject marks the expense rejected.
func (s *ExpenseService) Reject(ctx context.Context, expenseID, managerID int) error {
	return s.decide(ctx, expenseID, managerID, types.StatusRejected)
}

func (s *ExpenseService) decide(ctx context.Context, expenseID, managerID int, status string) error {
	expense, err := s.repo.Get(ctx, expenseID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, expenseID, status); err != nil {
		return err
	}

	s.publishReview(ctx, ReviewEvent{
		ExpenseID: expenseID,
		UserID:    expense.UserID,
		Status:    status,
		ManagerID: managerID,
		DecidedAt: time.Now(),
	})
	return nil
}

// publishReview is best-effort: a broker outage must not fail the
// decision that already committed.
func (s *ExpenseService) publishReview(ctx context.Context, event ReviewEvent) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal review event: %v", err)
		return
	}
	if _, err := s.publisher.Publish(ctx, s.channel, data, map[string]string{
		"status": event.Status,
	}); err != nil {
		log.Printf("publish review event: %v", err)
	}
}

// AttachReceipt stores the uploaded receipt and records its key on the
// expense row.
func (s *ExpenseService) AttachReceipt(ctx context.Context, expenseID int, filename, contentType string, r io.Reader, size int64) error {
	if s.receipts == nil {
		return ErrReceiptsDisabled
	}

	key := fmt.Sprintf("receipts/%d/%d_%s", expenseID, time.Now().UnixNano(), filename)
	if err := s.receipts.Put(ctx, key, r, size, contentType); err != nil {
		return err
	}
	return s.repo.SetReceipt(ctx, expenseID, key, filename)
}

// OpenReceipt streams the stored receipt of an expense.
func (s *ExpenseService) OpenReceipt(ctx context.Context, expense types.Expense) (io.ReadCloser, error) {
	if s.receipts == nil {
		return nil, ErrReceiptsDisabled
	}
	return s.receipts.Get(ctx, expense.ReceiptKey)
}

// ReceiptsEnabled reports whether an object store is configured.
func (s *ExpenseService) ReceiptsEnabled() bool {
	return s.receipts != nil
}

// Records fetches flattened expense records for aggregation. A nil
// userID selects all users (manager view).
func (s *ExpenseService) Records(ctx context.Context, userID *int) ([]types.ExpenseRecord, error) {
	return s.repo.Records(ctx, userID)
}

// RecentRecords fetches a user's expenses from the trailing days window
// for insight generation.
func (s *ExpenseService) RecentRecords(ctx context.Context, userID, days int) ([]types.ExpenseRecord, error) {
	if days <= 0 {
		days = 30
	}
	return s.repo.RecentRecords(ctx, userID, days)
}

// Snapshot computes the composite analytics view, scoped to one user
// when userID is non-nil.
func (s *ExpenseService) Snapshot(ctx context.Context, userID *int) (types.AnalyticsSnapshot, error) {
	records, err := s.repo.Records(ctx, userID)
	if err != nil {
		return types.AnalyticsSnapshot{}, err
	}
	return analytics.Snapshot(records, time.Now()), nil
}

// CategoryBreakdown computes the per-category aggregate for a user.
func (s *ExpenseService) CategoryBreakdown(ctx context.Context, userID *int) ([]types.CategoryBreakdown, error) {
	records, err := s.repo.Records(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analytics.CategoryBreakdown(records), nil
}

// MonthlyTrends computes the trailing-window trend series for a user.
func (s *ExpenseService) MonthlyTrends(ctx context.Context, userID *int) ([]types.MonthlyTrend, error) {
	records, err := s.repo.Records(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analytics.MonthlyTrends(records, time.Now(), analytics.DefaultTrendMonths), nil
}

// StatusBreakdown computes the status counts for a user.
func (s *ExpenseService) StatusBreakdown(ctx context.Context, userID *int) (map[string]int, error) {
	records, err := s.repo.Records(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analytics.StatusBreakdown(records), nil
}

// RecentExpenses computes the recent-activity list for a user.
func (s *ExpenseService) RecentExpenses(ctx context.Context, userID *int) ([]types.RecentExpense, error) {
	records, err := s.repo.Records(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analytics.RecentExpenses(records, analytics.DefaultRecentLimit), nil
}
