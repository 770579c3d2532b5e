// Package policy decides whether a caller may act on a resource. The
// model is two roles: managers may view and decide any expense, while
// employees are restricted to expenses they own. The data layer performs
// no role checks of its own; enforcement happens here and in the HTTP
// middleware built on top of these predicates.
package policy

import "github.com/expenseer/apiserver/types"

// IsManager reports whether the user holds the manager role.
func IsManager(user types.User) bool {
	return user.Role == types.RoleManager
}

// CanAccessExpense reports whether the user may view or act on the
// expense. Managers may access any expense; employees only their own.
// Callers must resolve existence first: a missing expense is NotFound
// for every caller, regardless of role.
func CanAccessExpense(user types.User, expense types.Expense) bool {
	if IsManager(user) {
		return true
	}
	return expense.UserID == user.ID
}
