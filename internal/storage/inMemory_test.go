package storage

import (
	"context"
	"testing"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStorageUsers(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStorage()

	id, err := store.SaveUser(ctx, auth.User{Email: "a@example.com", PasswordHashed: "hash"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = store.SaveUser(ctx, auth.User{Email: "a@example.com", PasswordHashed: "hash"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	profile, err := store.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, profile.Name)
	assert.True(t, profile.Notifications)

	require.NoError(t, store.UpdateProfile(ctx, id, tracker.ProfileUpdate{Name: strPtr("Alice"), Email: strPtr("alice@example.com")}))

	user, err := store.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	_, err = store.GetUserByEmail(ctx, "a@example.com")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestInMemoryStorageExpenses(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStorage()

	first, err := store.SaveExpense(ctx, tracker.Expense{UserID: 1, Name: strPtr("Lunch"), Amount: floatPtr(3)})
	require.NoError(t, err)
	second, err := store.SaveExpense(ctx, tracker.Expense{UserID: 1, Name: strPtr("")})
	require.NoError(t, err)

	expenses, err := store.GetExpensesByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, second, expenses[0].ID)
	assert.Nil(t, expenses[0].Name)
	assert.Equal(t, first, expenses[1].ID)

	require.NoError(t, store.DeleteExpense(ctx, first, 2))
	require.NoError(t, store.DeleteExpense(ctx, first, 1))
	require.NoError(t, store.DeleteExpense(ctx, first, 1))

	expenses, err = store.GetExpensesByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
}
