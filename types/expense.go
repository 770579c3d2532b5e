package types

import "time"

// Status values an expense moves through. Every expense starts pending;
// a manager decision moves it to approved or rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Expense represents a single submitted cost.
type Expense struct {
	// ID is the unique identifier of the expense.
	ID int `json:"id" db:"id"`

	// Title is a short label for the expense.
	Title string `json:"title" db:"title"`

	// Amount is the monetary value of the expense. The external contract
	// exposes a floating value; aggregation accumulates in fixed point.
	Amount float64 `json:"amount" db:"amount"`

	// Description is an optional free-form note.
	Description string `json:"description" db:"description"`

	// Date is the business date the cost was incurred. It is distinct
	// from CreatedAt, which records when the row was inserted.
	Date time.Time `json:"date" db:"date"`

	// Status is the review state of the expense: "pending", "approved"
	// or "rejected".
	Status string `json:"status" db:"status"`

	// UserID identifies the owning user.
	UserID int `json:"user_id" db:"user_id"`

	// CategoryID identifies the category the expense belongs to.
	CategoryID int `json:"category_id" db:"category_id"`

	// ReceiptKey is the object-storage key of an uploaded receipt, empty
	// when no receipt is attached.
	ReceiptKey string `json:"-" db:"receipt_key"`

	// ReceiptFilename is the original filename of the uploaded receipt.
	ReceiptFilename string `json:"receipt_filename,omitempty" db:"receipt_filename"`

	// CategoryName is the resolved category name, populated by joined
	// reads. It is not a column on the expenses table.
	CategoryName string `json:"category_name,omitempty" db:"-"`

	// UserName is the resolved full name of the owning user, populated
	// by joined reads.
	UserName string `json:"user_name,omitempty" db:"-"`

	// CreatedAt is the timestamp at which the expense row was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the expense.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsValidStatus reports whether status is one of the recognized labels.
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ExpenseRecord is an expense flattened with its resolved category name,
// the shape the aggregation engine and the insight prompts consume. All
// joined fields are fetched explicitly before aggregation.
type ExpenseRecord struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Amount       float64   `json:"amount"`
	Description  string    `json:"description"`
	CategoryName string    `json:"category"`
	Status       string    `json:"status"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"created_at"`
}
