package storage

import (
	"context"
	"sort"
	"sync"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/tracker"
)

type memUser struct {
	user    auth.User
	profile tracker.Profile
}

// InMemoryStorage mirrors SQLStorage semantics without a database.
type InMemoryStorage struct {
	mu            sync.Mutex
	users         map[int64]*memUser
	expenses      map[int64]tracker.Expense
	nextUserID    int64
	nextExpenseID int64
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		users:    make(map[int64]*memUser),
		expenses: make(map[int64]tracker.Expense),
	}
}

func (inMem *InMemoryStorage) GetStorageType() string {
	return "inmemory"
}

func (inMem *InMemoryStorage) emailTaken(email string, exceptID int64) bool {
	for id, u := range inMem.users {
		if id != exceptID && u.user.Email == email {
			return true
		}
	}
	return false
}

func (inMem *InMemoryStorage) SaveUser(ctx context.Context, newUser auth.User) (int64, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	if inMem.emailTaken(newUser.Email, 0) {
		return 0, errEmailInUse
	}

	inMem.nextUserID++
	newUser.ID = inMem.nextUserID
	inMem.users[newUser.ID] = &memUser{
		user: newUser,
		profile: tracker.Profile{
			Name:          copyString(emptyToNilString(&newUser.Name)),
			Email:         newUser.Email,
			Notifications: true,
		},
	}
	return newUser.ID, nil
}

func (inMem *InMemoryStorage) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	for _, u := range inMem.users {
		if u.user.Email == email {
			return u.user, nil
		}
	}
	return auth.User{}, errUserNotFound
}

func (inMem *InMemoryStorage) GetPasswordHash(ctx context.Context, userID int64) (string, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	u, ok := inMem.users[userID]
	if !ok {
		return "", errUserNotFound
	}
	return u.user.PasswordHashed, nil
}

func (inMem *InMemoryStorage) UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	u, ok := inMem.users[userID]
	if !ok {
		return errUserNotFound
	}
	u.user.PasswordHashed = hashedPassword
	return nil
}

func (inMem *InMemoryStorage) GetProfile(ctx context.Context, userID int64) (tracker.Profile, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	u, ok := inMem.users[userID]
	if !ok {
		return tracker.Profile{}, errUserNotFound
	}
	p := u.profile
	p.Name = copyString(p.Name)
	p.Phone = copyString(p.Phone)
	p.Bio = copyString(p.Bio)
	return p, nil
}

func (inMem *InMemoryStorage) UpdateProfile(ctx context.Context, userID int64, fields tracker.ProfileUpdate) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	if fields.IsEmpty() {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "No profile fields to update",
		}
	}

	u, ok := inMem.users[userID]
	if !ok {
		return errUserNotFound
	}

	if fields.Email != nil {
		if inMem.emailTaken(*fields.Email, userID) {
			return errEmailInUse
		}
		u.user.Email = *fields.Email
		u.profile.Email = *fields.Email
	}
	if fields.Name != nil {
		u.profile.Name = copyString(emptyToNilString(fields.Name))
		u.user.Name = *fields.Name
	}
	if fields.Phone != nil {
		u.profile.Phone = copyString(emptyToNilString(fields.Phone))
	}
	if fields.Bio != nil {
		u.profile.Bio = copyString(emptyToNilString(fields.Bio))
	}
	if fields.DarkMode != nil {
		u.profile.DarkMode = *fields.DarkMode
	}
	if fields.Notifications != nil {
		u.profile.Notifications = *fields.Notifications
	}
	return nil
}

func (inMem *InMemoryStorage) SaveExpense(ctx context.Context, e tracker.Expense) (int64, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	inMem.nextExpenseID++
	e.ID = inMem.nextExpenseID
	e.Name = copyString(emptyToNilString(e.Name))
	e.DoneBy = copyString(emptyToNilString(e.DoneBy))
	e.Category = copyString(emptyToNilString(e.Category))
	e.Date = copyString(emptyToNilString(e.Date))
	e.PaymentMode = copyString(emptyToNilString(e.PaymentMode))
	e.Remark = copyString(emptyToNilString(e.Remark))
	if e.Amount != nil {
		amount := *e.Amount
		e.Amount = &amount
	}
	inMem.expenses[e.ID] = e
	return e.ID, nil
}

func (inMem *InMemoryStorage) GetExpensesByUser(ctx context.Context, userID int64) ([]tracker.Expense, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	result := []tracker.Expense{}
	for _, e := range inMem.expenses {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (inMem *InMemoryStorage) DeleteExpense(ctx context.Context, expenseID int64, ownerID int64) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	e, ok := inMem.expenses[expenseID]
	if !ok {
		return nil
	}
	if ownerID > 0 && e.UserID != ownerID {
		return nil
	}
	delete(inMem.expenses, expenseID)
	return nil
}

func emptyToNilString(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
