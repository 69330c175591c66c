package storage

import (
	"context"
	"database/sql"
	"strings"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/expense_tracker/internal/tracker"
	"github.com/fatali-fataliyev/expense_tracker/logging"
)

type SQLStorage struct {
	pool *Pool
}

func NewSQLStorage(pool *Pool) *SQLStorage {
	return &SQLStorage{pool: pool}
}

func (s *SQLStorage) GetStorageType() string {
	return string(s.pool.Dialect())
}

// storeFailure logs the raw error and returns a response safe to show a client.
func storeFailure(ctx context.Context, function string, err error, message string) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	if IsUnavailable(err) {
		logging.Logger.Warnf("[TraceID=%s] | database busy in Storage.%s() function | Error: %v", traceID, function, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrUnavailable,
			Message: "Service is busy, try again later.",
		}
	}

	logging.Logger.Errorf("[TraceID=%s] | failed in Storage.%s() function | Error: %v", traceID, function, err)
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrInternal,
		Message: message,
	}
}

var (
	errEmailInUse   = appErrors.New(appErrors.ErrConflict, "Email already in use.")
	errUserNotFound = appErrors.New(appErrors.ErrNotFound, "User not found")
)

// --- USERS START --- //

func (s *SQLStorage) SaveUser(ctx context.Context, user auth.User) (int64, error) {
	query := "INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)"

	id, err := s.pool.Insert(ctx, "save user", query, emptyToNil(&user.Name), user.Email, user.PasswordHashed)
	if err != nil {
		if IsDuplicateKey(err) {
			return 0, errEmailInUse
		}
		return 0, storeFailure(ctx, "SaveUser", err, "Registration failed, try again later.")
	}
	return id, nil
}

func (s *SQLStorage) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	query := "SELECT id, name, email, password_hash FROM users WHERE email = ?"

	var user auth.User
	var name sql.NullString
	err := s.pool.QueryRow(ctx, "get user by email", query, []any{email}, &user.ID, &name, &user.Email, &user.PasswordHashed)
	if err != nil {
		if IsNoRows(err) {
			return auth.User{}, errUserNotFound
		}
		return auth.User{}, storeFailure(ctx, "GetUserByEmail", err, "Login failed, try again later.")
	}
	user.Name = name.String
	return user, nil
}

func (s *SQLStorage) GetPasswordHash(ctx context.Context, userID int64) (string, error) {
	query := "SELECT password_hash FROM users WHERE id = ?"

	var hash string
	err := s.pool.QueryRow(ctx, "get password hash", query, []any{userID}, &hash)
	if err != nil {
		if IsNoRows(err) {
			return "", errUserNotFound
		}
		return "", storeFailure(ctx, "GetPasswordHash", err, "Update failed")
	}
	return hash, nil
}

func (s *SQLStorage) UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error {
	query := "UPDATE users SET password_hash = ? WHERE id = ?"

	res, err := s.pool.Exec(ctx, "update password", query, hashedPassword, userID)
	if err != nil {
		return storeFailure(ctx, "UpdatePassword", err, "Update failed")
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return storeFailure(ctx, "UpdatePassword", err, "Update failed")
	}
	if rowsAffected == 0 {
		return errUserNotFound
	}
	return nil
}

func (s *SQLStorage) GetProfile(ctx context.Context, userID int64) (tracker.Profile, error) {
	query := "SELECT name, email, phone, bio, dark_mode, notifications FROM users WHERE id = ?"

	var p dbProfile
	err := s.pool.QueryRow(ctx, "get profile", query, []any{userID},
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Bio,
		&p.DarkMode,
		&p.Notifications,
	)
	if err != nil {
		if IsNoRows(err) {
			return tracker.Profile{}, errUserNotFound
		}
		return tracker.Profile{}, storeFailure(ctx, "GetProfile", err, "Failed to load profile, try again later.")
	}
	return p.toProfile(), nil
}

// UpdateProfile writes only the fields that are set.
func (s *SQLStorage) UpdateProfile(ctx context.Context, userID int64, fields tracker.ProfileUpdate) error {
	var sets []string
	var args []any

	if fields.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, emptyToNil(fields.Name))
	}
	if fields.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *fields.Email)
	}
	if fields.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, emptyToNil(fields.Phone))
	}
	if fields.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, emptyToNil(fields.Bio))
	}
	if fields.DarkMode != nil {
		sets = append(sets, "dark_mode = ?")
		args = append(args, *fields.DarkMode)
	}
	if fields.Notifications != nil {
		sets = append(sets, "notifications = ?")
		args = append(args, *fields.Notifications)
	}

	if len(sets) == 0 {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "No profile fields to update",
		}
	}

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, userID)

	res, err := s.pool.Exec(ctx, "update profile", query, args...)
	if err != nil {
		if IsDuplicateKey(err) {
			return errEmailInUse
		}
		return storeFailure(ctx, "UpdateProfile", err, "Failed to update profile, try again later.")
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return storeFailure(ctx, "UpdateProfile", err, "Failed to update profile, try again later.")
	}
	if rowsAffected == 0 {
		return errUserNotFound
	}
	return nil
}

// --- USERS END --- //

// --- EXPENSES START --- //

func (s *SQLStorage) SaveExpense(ctx context.Context, e tracker.Expense) (int64, error) {
	query := `INSERT INTO expenses (user_id, expense_name, amount, expense_done_by, category, expense_date, payment_mode, remark)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var amount any
	if e.Amount != nil {
		amount = *e.Amount
	}

	id, err := s.pool.Insert(ctx, "save expense", query,
		e.UserID,
		emptyToNil(e.Name),
		amount,
		emptyToNil(e.DoneBy),
		emptyToNil(e.Category),
		emptyToNil(e.Date),
		emptyToNil(e.PaymentMode),
		emptyToNil(e.Remark),
	)
	if err != nil {
		return 0, storeFailure(ctx, "SaveExpense", err, "Failed to save the expense, try again later.")
	}
	return id, nil
}

func (s *SQLStorage) GetExpensesByUser(ctx context.Context, userID int64) ([]tracker.Expense, error) {
	query := "SELECT id, user_id, expense_name, amount, expense_done_by, category, " +
		s.pool.Dialect().DateColumn("expense_date") +
		", payment_mode, remark FROM expenses WHERE user_id = ? ORDER BY id DESC"

	expenses := []tracker.Expense{}
	err := s.pool.Query(ctx, "get expenses", query, []any{userID}, func(rows *sql.Rows) error {
		var e dbExpense
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Name,
			&e.Amount,
			&e.DoneBy,
			&e.Category,
			&e.Date,
			&e.PaymentMode,
			&e.Remark,
		); err != nil {
			return err
		}
		expenses = append(expenses, e.toExpense())
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, "GetExpensesByUser", err, "Failed to fetch expenses, try again later.")
	}
	return expenses, nil
}

// DeleteExpense succeeds whether or not a row matched. ownerID 0 skips the owner check.
func (s *SQLStorage) DeleteExpense(ctx context.Context, expenseID int64, ownerID int64) error {
	query := "DELETE FROM expenses WHERE id = ?"
	args := []any{expenseID}
	if ownerID > 0 {
		query += " AND user_id = ?"
		args = append(args, ownerID)
	}

	if _, err := s.pool.Exec(ctx, "delete expense", query, args...); err != nil {
		return storeFailure(ctx, "DeleteExpense", err, "Failed to delete the expense, try again later.")
	}
	return nil
}

// --- EXPENSES END --- //
