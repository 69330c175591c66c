package storage

import (
	"database/sql"

	"github.com/fatali-fataliyev/expense_tracker/internal/tracker"
)

type dbExpense struct {
	ID          int64
	UserID      int64
	Name        sql.NullString
	Amount      sql.NullFloat64
	DoneBy      sql.NullString
	Category    sql.NullString
	Date        sql.NullString
	PaymentMode sql.NullString
	Remark      sql.NullString
}

func (e dbExpense) toExpense() tracker.Expense {
	return tracker.Expense{
		ID:          e.ID,
		UserID:      e.UserID,
		Name:        nullString(e.Name),
		Amount:      nullFloat(e.Amount),
		DoneBy:      nullString(e.DoneBy),
		Category:    nullString(e.Category),
		Date:        nullString(e.Date),
		PaymentMode: nullString(e.PaymentMode),
		Remark:      nullString(e.Remark),
	}
}

type dbProfile struct {
	Name          sql.NullString
	Email         string
	Phone         sql.NullString
	Bio           sql.NullString
	DarkMode      bool
	Notifications bool
}

func (p dbProfile) toProfile() tracker.Profile {
	return tracker.Profile{
		Name:          nullString(p.Name),
		Email:         p.Email,
		Phone:         nullString(p.Phone),
		Bio:           nullString(p.Bio),
		DarkMode:      p.DarkMode,
		Notifications: p.Notifications,
	}
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

// emptyToNil stores an empty string as NULL.
func emptyToNil(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}
