package policy

import (
	"testing"

	"github.com/expenseer/apiserver/types"
	"github.com/stretchr/testify/assert"
)

func TestIsManager(t *testing.T) {
	assert.True(t, IsManager(types.User{Role: types.RoleManager}))
	assert.False(t, IsManager(types.User{Role: types.RoleEmployee}))
	assert.False(t, IsManager(types.User{Role: "auditor"}))
}

func TestCanAccessExpense(t *testing.T) {
	employee := types.User{ID: 1, Role: types.RoleEmployee}
	otherEmployee := types.User{ID: 2, Role: types.RoleEmployee}
	manager := types.User{ID: 3, Role: types.RoleManager}

	expense := types.Expense{ID: 10, UserID: 1}

	tests := []struct {
		name string
		user types.User
		want bool
	}{
		{"owner", employee, true},
		{"other employee", otherEmployee, false},
		{"manager", manager, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessExpense(tt.user, expense))
		})
	}
}
