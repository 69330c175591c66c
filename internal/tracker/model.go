package tracker

// REQUESTS START:

type ExpenseRequest struct {
	Name        *string
	Amount      *float64
	DoneBy      *string
	Category    *string
	Date        *string
	PaymentMode *string
	Remark      *string
}

// ProfileUpdate is a partial update: nil fields keep their stored value.
type ProfileUpdate struct {
	Name          *string
	Email         *string
	Phone         *string
	Bio           *string
	DarkMode      *bool
	Notifications *bool
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Bio == nil && p.DarkMode == nil && p.Notifications == nil
}

// REQUESTS END:

// MODELS:

type Expense struct {
	ID          int64
	UserID      int64
	Name        *string
	Amount      *float64
	DoneBy      *string
	Category    *string
	Date        *string
	PaymentMode *string
	Remark      *string
}

type Profile struct {
	Name          *string
	Email         string
	Phone         *string
	Bio           *string
	DarkMode      bool
	Notifications bool
}
