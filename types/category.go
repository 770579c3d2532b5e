package types

import "time"

// Category is a global expense category. Categories are shared across all
// users and referenced by many expenses.
type Category struct {
	// ID is the unique identifier of the category.
	ID int `json:"id" db:"id"`

	// Name is the unique human-readable name of the category.
	Name string `json:"name" db:"name"`

	// Description is an optional free-form description.
	Description string `json:"description" db:"description"`

	// CreatedAt is the timestamp at which the category was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
