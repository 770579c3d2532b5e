package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/expenseer/apiserver/internal/mq"
	"github.com/expenseer/apiserver/internal/store"
	"github.com/expenseer/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExpenseRepo keeps expenses in memory and records pagination
// arguments so the service's clamping can be observed.
type fakeExpenseRepo struct {
	expenses map[int]types.Expense
	nextID   int

	lastSkip  int
	lastLimit int
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{expenses: map[int]types.Expense{}, nextID: 1}
}

func (r *fakeExpenseRepo) Create(_ context.Context, expense types.Expense) (types.Expense, error) {
	expense.ID = r.nextID
	r.nextID++
	expense.CreatedAt = time.Now()
	r.expenses[expense.ID] = expense
	return expense, nil
}

func (r *fakeExpenseRepo) Get(_ context.Context, id int) (types.Expense, error) {
	expense, ok := r.expenses[id]
	if !ok {
		return types.Expense{}, store.ErrNotFound
	}
	return expense, nil
}

func (r *fakeExpenseRepo) ListByUser(_ context.Context, userID, skip, limit int) ([]types.Expense, error) {
	r.lastSkip, r.lastLimit = skip, limit
	return nil, nil
}

func (r *fakeExpenseRepo) ListAll(_ context.Context, skip, limit int) ([]types.Expense, error) {
	r.lastSkip, r.lastLimit = skip, limit
	return nil, nil
}

func (r *fakeExpenseRepo) ListByStatus(_ context.Context, _ string, skip, limit int) ([]types.Expense, error) {
	r.lastSkip, r.lastLimit = skip, limit
	return nil, nil
}

func (r *fakeExpenseRepo) UpdateStatus(_ context.Context, id int, status string) error {
	expense, ok := r.expenses[id]
	if !ok {
		return store.ErrNotFound
	}
	expense.Status = status
	r.expenses[id] = expense
	return nil
}

func (r *fakeExpenseRepo) SetReceipt(_ context.Context, id int, key, filename string) error {
	expense, ok := r.expenses[id]
	if !ok {
		return store.ErrNotFound
	}
	expense.ReceiptKey = key
	expense.ReceiptFilename = filename
	r.expenses[id] = expense
	return nil
}

func (r *fakeExpenseRepo) Records(_ context.Context, _ *int) ([]types.ExpenseRecord, error) {
	records := make([]types.ExpenseRecord, 0, len(r.expenses))
	for _, expense := range r.expenses {
		records = append(records, types.ExpenseRecord{
			ID:        expense.ID,
			Title:     expense.Title,
			Amount:    expense.Amount,
			Status:    expense.Status,
			Date:      expense.Date,
			CreatedAt: expense.CreatedAt,
		})
	}
	return records, nil
}

func (r *fakeExpenseRepo) RecentRecords(_ context.Context, _, _ int) ([]types.ExpenseRecord, error) {
	return r.Records(context.Background(), nil)
}

// fakeBroker captures published messages, optionally failing.
type fakeBroker struct {
	channel string
	data    []byte
	attrs   map[string]string
	calls   int
	err     error
}

func (b *fakeBroker) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.calls++
	b.channel, b.data, b.attrs = channel, data, attrs
	if b.err != nil {
		return "", b.err
	}
	return "msg-1", nil
}

func (b *fakeBroker) Subscribe(context.Context, string, mq.Handler) error { return nil }
func (b *fakeBroker) Close() error                                       { return nil }

func TestCreateForcesPendingStatus(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc := NewExpenseService(repo)

	created, err := svc.Create(context.Background(), types.Expense{
		Title:  "Hotel",
		Amount: 120,
		Status: types.StatusApproved, // caller-supplied status is ignored
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, created.Status)
	assert.Equal(t, types.StatusPending, repo.expenses[created.ID].Status)
}

func TestListPaginationClamped(t *testing.T) {
	tests := []struct {
		name      string
		skip      int
		limit     int
		wantSkip  int
		wantLimit int
	}{
		{"defaults", 0, 0, 0, 100},
		{"negative skip", -5, 10, 0, 10},
		{"limit capped", 0, 5000, 0, 1000},
		{"passthrough", 20, 50, 20, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeExpenseRepo()
			svc := NewExpenseService(repo)

			_, err := svc.ListAll(context.Background(), tt.skip, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSkip, repo.lastSkip)
			assert.Equal(t, tt.wantLimit, repo.lastLimit)
		})
	}
}

func TestApprovePublishesReviewEvent(t *testing.T) {
	repo := newFakeExpenseRepo()
	broker := &fakeBroker{}
	svc := NewExpenseService(repo).WithPublisher(mq.New(broker), "expense.review")

	created, err := svc.Create(context.Background(), types.Expense{Title: "Taxi", Amount: 30, UserID: 7})
	require.NoError(t, err)

	require.NoError(t, svc.Approve(context.Background(), created.ID, 3))
	assert.Equal(t, types.StatusApproved, repo.expenses[created.ID].Status)

	require.Equal(t, 1, broker.calls)
	assert.Equal(t, "expense.review", broker.channel)
	assert.Equal(t, types.StatusApproved, broker.attrs["status"])

	var event ReviewEvent
	require.NoError(t, json.Unmarshal(broker.data, &event))
	assert.Equal(t, created.ID, event.ExpenseID)
	assert.Equal(t, 7, event.UserID)
	assert.Equal(t, 3, event.ManagerID)
	assert.Equal(t, types.StatusApproved, event.Status)
}

func TestDecisionSurvivesBrokerOutage(t *testing.T) {
	repo := newFakeExpenseRepo()
	broker := &fakeBroker{err: errors.New("broker down")}
	svc := NewExpenseService(repo).WithPublisher(mq.New(broker), "expense.review")

	created, err := svc.Create(context.Background(), types.Expense{Title: "Taxi", Amount: 30})
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), created.ID, 3))
	assert.Equal(t, types.StatusRejected, repo.expenses[created.ID].Status)
}

func TestDecideUnknownExpense(t *testing.T) {
	svc := NewExpenseService(newFakeExpenseRepo())
	err := svc.Approve(context.Background(), 42, 3)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRepeatedDecisionsOverwrite(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc := NewExpenseService(repo)

	created, err := svc.Create(context.Background(), types.Expense{Title: "Taxi", Amount: 30})
	require.NoError(t, err)

	require.NoError(t, svc.Approve(context.Background(), created.ID, 3))
	require.NoError(t, svc.Reject(context.Background(), created.ID, 4))
	assert.Equal(t, types.StatusRejected, repo.expenses[created.ID].Status)
}

func TestReceiptsDisabledWithoutStorage(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc := NewExpenseService(repo)

	assert.False(t, svc.ReceiptsEnabled())

	err := svc.AttachReceipt(context.Background(), 1, "receipt.pdf", "application/pdf", nil, 0)
	assert.ErrorIs(t, err, ErrReceiptsDisabled)

	_, err = svc.OpenReceipt(context.Background(), types.Expense{ReceiptKey: "receipts/1/x.pdf"})
	assert.ErrorIs(t, err, ErrReceiptsDisabled)
}
