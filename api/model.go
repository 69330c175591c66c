package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/fatali-fataliyev/expense_tracker/internal/tracker"
)

// fieldError carries a message that is safe to send back to the client.
type fieldError struct {
	message string
}

func (e fieldError) Error() string {
	return e.message
}

// FlexibleID accepts a JSON number or a numeric string.
type FlexibleID int64

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*id = 0
			return nil
		}
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fieldError{message: "user_id must be a number"}
	}
	*id = FlexibleID(v)
	return nil
}

// FlexibleAmount accepts a JSON number or a numeric string holding a finite value.
type FlexibleAmount float64

func (a *FlexibleAmount) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	// ParseFloat accepts Inf and NaN, which JSON cannot encode on the way out.
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fieldError{message: "amount must be a number"}
	}
	*a = FlexibleAmount(v)
	return nil
}

// REQUESTS START:

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateExpenseRequest struct {
	UserID      FlexibleID      `json:"user_id"`
	Name        *string         `json:"expense_name"`
	Amount      *FlexibleAmount `json:"amount"`
	DoneBy      *string         `json:"expense_done_by"`
	Category    *string         `json:"category"`
	Date        *string         `json:"expense_date"`
	PaymentMode *string         `json:"payment_mode"`
	Remark      *string         `json:"remark"`
}

func (req CreateExpenseRequest) toTracker() tracker.ExpenseRequest {
	var amount *float64
	if req.Amount != nil {
		v := float64(*req.Amount)
		amount = &v
	}
	return tracker.ExpenseRequest{
		Name:        req.Name,
		Amount:      amount,
		DoneBy:      req.DoneBy,
		Category:    req.Category,
		Date:        req.Date,
		PaymentMode: req.PaymentMode,
		Remark:      req.Remark,
	}
}

// UpdateProfileRequest leaves absent or null fields untouched.
type UpdateProfileRequest struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	Bio           *string `json:"bio"`
	DarkMode      *bool   `json:"darkMode"`
	Notifications *bool   `json:"notifications"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// REQUESTS END:

// RESPONSES:

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type LoginUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Message string    `json:"message"`
	User    LoginUser `json:"user"`
}

type ExpenseCreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type ExpenseItem struct {
	ID          int64    `json:"id"`
	UserID      int64    `json:"user_id"`
	Name        *string  `json:"expense_name"`
	Amount      *float64 `json:"amount"`
	DoneBy      *string  `json:"expense_done_by"`
	Category    *string  `json:"category"`
	Date        *string  `json:"expense_date"`
	PaymentMode *string  `json:"payment_mode"`
	Remark      *string  `json:"remark"`
}

type ProfileResponse struct {
	Name          *string `json:"name"`
	Email         string  `json:"email"`
	Phone         *string `json:"phone"`
	Bio           *string `json:"bio"`
	DarkMode      bool    `json:"darkMode"`
	Notifications bool    `json:"notifications"`
}

type EchoResponse struct {
	Message string `json:"message"`
	Body    any    `json:"body"`
}

// RESPONSES END:

func ExpenseToHttp(e tracker.Expense) ExpenseItem {
	return ExpenseItem{
		ID:          e.ID,
		UserID:      e.UserID,
		Name:        e.Name,
		Amount:      e.Amount,
		DoneBy:      e.DoneBy,
		Category:    e.Category,
		Date:        e.Date,
		PaymentMode: e.PaymentMode,
		Remark:      e.Remark,
	}
}

func ProfileToHttp(p tracker.Profile) ProfileResponse {
	return ProfileResponse{
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		Bio:           p.Bio,
		DarkMode:      p.DarkMode,
		Notifications: p.Notifications,
	}
}
