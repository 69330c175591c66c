package auth

import (
	"strings"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
)

const (
	MAX_PASSWORD_LENGTH = 72
)

type User struct {
	ID             int64
	Name           string
	Email          string
	PasswordHashed string
}

type NewUser struct {
	Name          string
	Email         string
	PasswordPlain string
}

// ValidateUserFields only checks presence; the store owns uniqueness.
func (newUser NewUser) ValidateUserFields() error {
	if strings.TrimSpace(newUser.Email) == "" || newUser.PasswordPlain == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Email and password are required",
		}
	}
	if len(newUser.PasswordPlain) > MAX_PASSWORD_LENGTH {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Password so long, maximum length is 72",
		}
	}
	return nil
}

type UserCredentialsPure struct {
	Email         string
	PasswordPlain string
}

func (c UserCredentialsPure) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.PasswordPlain == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Email and password are required",
		}
	}
	return nil
}

type PasswordChange struct {
	OldPassword string
	NewPassword string
}

func (p PasswordChange) Validate() error {
	if p.OldPassword == "" || p.NewPassword == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "oldPassword and newPassword are required",
		}
	}
	if len(p.NewPassword) > MAX_PASSWORD_LENGTH {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Password so long, maximum length is 72",
		}
	}
	return nil
}
