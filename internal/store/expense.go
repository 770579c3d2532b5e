package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/expenseer/apiserver/types"
)

// ExpenseRepository handles persistence for expenses. Reads that feed
// API responses or the aggregation engine join the category (and user)
// names explicitly; nothing relies on lazy relationship loading.
type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

const expenseJoinedColumns = `
	e.id, e.title, e.amount, e.description, e.date, e.status,
	e.user_id, e.category_id, e.receipt_key, e.receipt_filename,
	e.created_at, e.updated_at, c.name, u.full_name`

func scanJoinedExpense(scanner interface{ Scan(...any) error }) (types.Expense, error) {
	var expense types.Expense
	err := scanner.Scan(
		&expense.ID,
		&expense.Title,
		&expense.Amount,
		&expense.Description,
		&expense.Date,
		&expense.Status,
		&expense.UserID,
		&expense.CategoryID,
		&expense.ReceiptKey,
		&expense.ReceiptFilename,
		&expense.CreatedAt,
		&expense.UpdatedAt,
		&expense.CategoryName,
		&expense.UserName,
	)
	return expense, err
}

func (r *ExpenseRepository) Create(ctx context.Context, expense types.Expense) (types.Expense, error) {
	now := time.Now()
	expense.CreatedAt = now
	expense.UpdatedAt = now
	expense.Status = types.StatusPending

	const query = `
		INSERT INTO expenses (title, amount, description, date, status, user_id, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		expense.Title,
		expense.Amount,
		expense.Description,
		expense.Date,
		expense.Status,
		expense.UserID,
		expense.CategoryID,
		expense.CreatedAt,
		expense.UpdatedAt,
	).Scan(&expense.ID); err != nil {
		return types.Expense{}, err
	}
	return expense, nil
}

func (r *ExpenseRepository) Get(ctx context.Context, id int) (types.Expense, error) {
	const query = `
		SELECT` + expenseJoinedColumns + `
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		JOIN users u ON u.id = e.user_id
		WHERE e.id = $1`
	expense, err := scanJoinedExpense(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Expense{}, ErrNotFound
		}
		return types.Expense{}, err
	}
	return expense, nil
}

func (r *ExpenseRepository) ListByUser(ctx context.Context, userID, skip, limit int) ([]types.Expense, error) {
	const query = `
		SELECT` + expenseJoinedColumns + `
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		JOIN users u ON u.id = e.user_id
		WHERE e.user_id = $1
		ORDER BY e.id
		OFFSET $2 LIMIT $3`
	return r.queryExpenses(ctx, query, userID, skip, limit)
}

func (r *ExpenseRepository) ListAll(ctx context.Context, skip, limit int) ([]types.Expense, error) {
	const query = `
		SELECT` + expenseJoinedColumns + `
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		JOIN users u ON u.id = e.user_id
		ORDER BY e.id
		OFFSET $1 LIMIT $2`
	return r.queryExpenses(ctx, query, skip, limit)
}

func (r *ExpenseRepository) ListByStatus(ctx context.Context, status string, skip, limit int) ([]types.Expense, error) {
	const query = `
		SELECT` + expenseJoinedColumns + `
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		JOIN users u ON u.id = e.user_id
		WHERE e.status = $1
		ORDER BY e.id
		OFFSET $2 LIMIT $3`
	return r.queryExpenses(ctx, query, status, skip, limit)
}

func (r *ExpenseRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]types.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]types.Expense, 0)
	for rows.Next() {
		expense, err := scanJoinedExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

// UpdateStatus overwrites the status of an expense unconditionally.
// Last writer wins; there is no version check, and role enforcement is
// the caller's responsibility.
func (r *ExpenseRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	const query = `
		UPDATE expenses
		SET status = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetReceipt records the object-storage key and original filename of an
// uploaded receipt.
func (r *ExpenseRepository) SetReceipt(ctx context.Context, id int, key, filename string) error {
	const query = `
		UPDATE expenses
		SET receipt_key = $1,
			receipt_filename = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, key, filename, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Records fetches the flattened expense records the aggregation engine
// consumes. A nil userID selects expenses across all users.
func (r *ExpenseRepository) Records(ctx context.Context, userID *int) ([]types.ExpenseRecord, error) {
	const base = `
		SELECT e.id, e.title, e.amount, e.description, c.name, e.status, e.date, e.created_at
		FROM expenses e
		JOIN categories c ON c.id = e.category_id`

	var (
		rows *sql.Rows
		err  error
	)
	if userID != nil {
		rows, err = r.db.QueryContext(ctx, base+` WHERE e.user_id = $1`, *userID)
	} else {
		rows, err = r.db.QueryContext(ctx, base)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// RecentRecords fetches a user's expenses whose business date falls in
// the trailing number of days, for insight generation.
func (r *ExpenseRepository) RecentRecords(ctx context.Context, userID, days int) ([]types.ExpenseRecord, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	const query = `
		SELECT e.id, e.title, e.amount, e.description, c.name, e.status, e.date, e.created_at
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1 AND e.date >= $2`
	rows, err := r.db.QueryContext(ctx, query, userID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]types.ExpenseRecord, error) {
	records := make([]types.ExpenseRecord, 0)
	for rows.Next() {
		var record types.ExpenseRecord
		if err := rows.Scan(
			&record.ID,
			&record.Title,
			&record.Amount,
			&record.Description,
			&record.CategoryName,
			&record.Status,
			&record.Date,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
