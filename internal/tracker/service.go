package tracker

import (
	"context"
	"fmt"
	"strings"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/expense_tracker/logging"
)

var (
	errInvalidCredentials   = appErrors.New(appErrors.ErrAuth, "Invalid email or password")
	errWrongCurrentPassword = appErrors.New(appErrors.ErrAuth, "Current password incorrect")
)

type Tracker struct {
	storage     Storage
	hasher      *auth.Hasher
	StorageType string
}

func NewTracker(s Storage, hasher *auth.Hasher) Tracker {
	return Tracker{
		storage:     s,
		hasher:      hasher,
		StorageType: s.GetStorageType(),
	}
}

type Storage interface {
	SaveUser(ctx context.Context, user auth.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (auth.User, error)
	GetPasswordHash(ctx context.Context, userID int64) (string, error)
	UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error
	GetProfile(ctx context.Context, userID int64) (Profile, error)
	UpdateProfile(ctx context.Context, userID int64, fields ProfileUpdate) error
	SaveExpense(ctx context.Context, expense Expense) (int64, error)
	GetExpensesByUser(ctx context.Context, userID int64) ([]Expense, error)
	DeleteExpense(ctx context.Context, expenseID int64, ownerID int64) error
	GetStorageType() string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateID(id int64, what string) error {
	if id <= 0 {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("%s is required", what),
		}
	}
	return nil
}

func (t *Tracker) Register(ctx context.Context, newUser auth.NewUser) (int64, error) {
	if err := newUser.ValidateUserFields(); err != nil {
		return 0, err
	}

	hashedPassword, err := t.hasher.HashPassword(newUser.PasswordPlain)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	user := auth.User{
		Name:           strings.TrimSpace(newUser.Name),
		Email:          normalizeEmail(newUser.Email),
		PasswordHashed: hashedPassword,
	}

	userID, err := t.storage.SaveUser(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("failed to register: %w", err)
	}
	return userID, nil
}

// Login fetches by email and verifies the hash in process. Unknown email and
// wrong password produce the same error and the same log line.
func (t *Tracker) Login(ctx context.Context, credentials auth.UserCredentialsPure) (auth.User, error) {
	if err := credentials.Validate(); err != nil {
		return auth.User{}, err
	}
	email := normalizeEmail(credentials.Email)
	traceID := contextutil.TraceIDFromContext(ctx)

	user, err := t.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if !appErrors.Is(err, appErrors.ErrNotFound) {
			return auth.User{}, err
		}
		t.hasher.CompareDummy(credentials.PasswordPlain)
		logging.Logger.Warnf("[TraceID=%s] | login rejected for email: %s", traceID, email)
		return auth.User{}, errInvalidCredentials
	}

	if !t.hasher.ComparePasswords(user.PasswordHashed, credentials.PasswordPlain) {
		logging.Logger.Warnf("[TraceID=%s] | login rejected for email: %s", traceID, email)
		return auth.User{}, errInvalidCredentials
	}

	logging.Logger.Infof("[TraceID=%s] | login succeeded for user: %d", traceID, user.ID)
	return user, nil
}

func (t *Tracker) GetExpenses(ctx context.Context, userID int64) ([]Expense, error) {
	if err := validateID(userID, "user_id"); err != nil {
		return nil, err
	}

	expenses, err := t.storage.GetExpensesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	if expenses == nil {
		expenses = []Expense{}
	}
	return expenses, nil
}

func (t *Tracker) SaveExpense(ctx context.Context, userID int64, req ExpenseRequest) (int64, error) {
	if err := validateID(userID, "user_id"); err != nil {
		return 0, err
	}

	expense := Expense{
		UserID:      userID,
		Name:        req.Name,
		Amount:      req.Amount,
		DoneBy:      req.DoneBy,
		Category:    req.Category,
		Date:        req.Date,
		PaymentMode: req.PaymentMode,
		Remark:      req.Remark,
	}

	expenseID, err := t.storage.SaveExpense(ctx, expense)
	if err != nil {
		return 0, fmt.Errorf("failed to save expense: %w", err)
	}
	return expenseID, nil
}

// DeleteExpense is idempotent. ownerID 0 deletes regardless of owner.
func (t *Tracker) DeleteExpense(ctx context.Context, expenseID int64, ownerID int64) error {
	if err := validateID(expenseID, "expense id"); err != nil {
		return err
	}
	if ownerID < 0 {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "user_id should be positive",
		}
	}

	if err := t.storage.DeleteExpense(ctx, expenseID, ownerID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

func (t *Tracker) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	if err := validateID(userID, "user id"); err != nil {
		return Profile{}, err
	}

	profile, err := t.storage.GetProfile(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (t *Tracker) UpdateProfile(ctx context.Context, userID int64, fields ProfileUpdate) error {
	if err := validateID(userID, "user id"); err != nil {
		return err
	}
	if fields.IsEmpty() {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "No profile fields to update",
		}
	}
	if fields.Email != nil {
		email := normalizeEmail(*fields.Email)
		if email == "" {
			return appErrors.ErrorResponse{
				Code:    appErrors.ErrInvalidInput,
				Message: "Email cannot be empty",
			}
		}
		fields.Email = &email
	}

	if err := t.storage.UpdateProfile(ctx, userID, fields); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// ChangePassword runs two independent statements without a transaction, so a
// concurrent change between the check and the write is last-writer-wins.
func (t *Tracker) ChangePassword(ctx context.Context, userID int64, change auth.PasswordChange) error {
	if err := validateID(userID, "user id"); err != nil {
		return err
	}
	if err := change.Validate(); err != nil {
		return err
	}
	traceID := contextutil.TraceIDFromContext(ctx)

	storedHash, err := t.storage.GetPasswordHash(ctx, userID)
	if err != nil {
		logging.Logger.Warnf("[TraceID=%s] | password change rejected for user %d: %v", traceID, userID, err)
		return errWrongCurrentPassword
	}
	if !t.hasher.ComparePasswords(storedHash, change.OldPassword) {
		logging.Logger.Warnf("[TraceID=%s] | password change rejected for user %d", traceID, userID)
		return errWrongCurrentPassword
	}

	newHash, err := t.hasher.HashPassword(change.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := t.storage.UpdatePassword(ctx, userID, newHash); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to store new password for user %d: %v", traceID, userID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Update failed",
		}
	}
	return nil
}
