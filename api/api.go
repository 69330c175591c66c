package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/0xcafe-io/iz"
	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/expense_tracker/internal/tracker"
	"github.com/fatali-fataliyev/expense_tracker/logging"
)

type Api struct {
	Service *tracker.Tracker
	// RequireExpenseOwner makes user_id mandatory on expense deletion.
	RequireExpenseOwner bool
}

func NewApi(service *tracker.Tracker, requireExpenseOwner bool) *Api {
	return &Api{
		Service:             service,
		RequireExpenseOwner: requireExpenseOwner,
	}
}

func messageResponse(status int, message string) iz.Responder {
	return iz.Respond().Status(status).JSON(MessageResponse{Message: message})
}

func errorResponse(err error) iz.Responder {
	return messageResponse(appErrors.HTTPStatus(err), appErrors.PublicMessage(err))
}

// decodeBody treats an empty body as an empty object.
func decodeBody(r *iz.Request, v any) iz.Responder {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var fieldErr fieldError
		if errors.As(err, &fieldErr) {
			return messageResponse(400, fieldErr.message)
		}
		logging.Logger.Warnf("[TraceID=%s] | invalid request body: %v", contextutil.TraceIDFromContext(r.Context()), err)
		return messageResponse(400, "Invalid request body")
	}
	return nil
}

func pathID(r *iz.Request) (int64, iz.Responder) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, messageResponse(400, "Invalid id")
	}
	return id, nil
}

// queryUserID returns 0 when user_id is absent.
func queryUserID(r *iz.Request) (int64, iz.Responder) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, messageResponse(400, "user_id must be a number")
	}
	return id, nil
}

func (api *Api) HealthHandler(r *iz.Request) iz.Responder {
	return iz.Respond().Status(200).Text("Backend is running!")
}

func (api *Api) RegisterHandler(r *iz.Request) iz.Responder {
	var req RegisterRequest
	if resp := decodeBody(r, &req); resp != nil {
		return resp
	}

	newUser := auth.NewUser{
		Name:          req.Name,
		Email:         req.Email,
		PasswordPlain: req.Password,
	}

	userID, err := api.Service.Register(r.Context(), newUser)
	if err != nil {
		return errorResponse(err)
	}

	resp := RegisterResponse{
		Message: "User registered successfully",
		UserID:  userID,
	}
	return iz.Respond().Status(201).JSON(resp)
}

func (api *Api) LoginHandler(r *iz.Request) iz.Responder {
	var req LoginRequest
	if resp := decodeBody(r, &req); resp != nil {
		return resp
	}

	credentials := auth.UserCredentialsPure{
		Email:         req.Email,
		PasswordPlain: req.Password,
	}

	user, err := api.Service.Login(r.Context(), credentials)
	if err != nil {
		return errorResponse(err)
	}

	resp := LoginResponse{
		Message: "Login successful",
		User: LoginUser{
			ID:    user.ID,
			Email: user.Email,
		},
	}
	return iz.Respond().Status(200).JSON(resp)
}

func (api *Api) GetExpensesHandler(r *iz.Request) iz.Responder {
	if r.URL.Query().Get("user_id") == "" {
		return messageResponse(400, "user_id is required")
	}
	userID, resp := queryUserID(r)
	if resp != nil {
		return resp
	}

	expenses, err := api.Service.GetExpenses(r.Context(), userID)
	if err != nil {
		return errorResponse(err)
	}

	items := make([]ExpenseItem, 0, len(expenses))
	for _, e := range expenses {
		items = append(items, ExpenseToHttp(e))
	}
	return iz.Respond().Status(200).JSON(items)
}

func (api *Api) CreateExpenseHandler(r *iz.Request) iz.Responder {
	var req CreateExpenseRequest
	if resp := decodeBody(r, &req); resp != nil {
		return resp
	}

	if req.UserID <= 0 {
		return messageResponse(400, "user_id is required")
	}

	id, err := api.Service.SaveExpense(r.Context(), int64(req.UserID), req.toTracker())
	if err != nil {
		return errorResponse(err)
	}

	resp := ExpenseCreatedResponse{
		Message: "Expense added successfully",
		ID:      id,
	}
	return iz.Respond().Status(201).JSON(resp)
}

func (api *Api) DeleteExpenseHandler(r *iz.Request) iz.Responder {
	expenseID, resp := pathID(r)
	if resp != nil {
		return resp
	}

	ownerID, resp := queryUserID(r)
	if resp != nil {
		return resp
	}
	if api.RequireExpenseOwner && ownerID == 0 {
		return messageResponse(400, "user_id is required")
	}

	if err := api.Service.DeleteExpense(r.Context(), expenseID, ownerID); err != nil {
		return errorResponse(err)
	}
	return messageResponse(200, "Expense deleted successfully")
}

func (api *Api) GetProfileHandler(r *iz.Request) iz.Responder {
	userID, resp := pathID(r)
	if resp != nil {
		return resp
	}

	profile, err := api.Service.GetProfile(r.Context(), userID)
	if err != nil {
		return errorResponse(err)
	}
	return iz.Respond().Status(200).JSON(ProfileToHttp(profile))
}

func (api *Api) UpdateProfileHandler(r *iz.Request) iz.Responder {
	userID, resp := pathID(r)
	if resp != nil {
		return resp
	}

	var req UpdateProfileRequest
	if resp := decodeBody(r, &req); resp != nil {
		return resp
	}

	fields := tracker.ProfileUpdate{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Bio:           req.Bio,
		DarkMode:      req.DarkMode,
		Notifications: req.Notifications,
	}

	if err := api.Service.UpdateProfile(r.Context(), userID, fields); err != nil {
		return errorResponse(err)
	}
	return messageResponse(200, "Profile updated successfully")
}

func (api *Api) ChangePasswordHandler(r *iz.Request) iz.Responder {
	userID, resp := pathID(r)
	if resp != nil {
		return resp
	}

	var req ChangePasswordRequest
	if resp := decodeBody(r, &req); resp != nil {
		return resp
	}

	change := auth.PasswordChange{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}

	if err := api.Service.ChangePassword(r.Context(), userID, change); err != nil {
		return errorResponse(err)
	}
	return messageResponse(200, "Password updated successfully")
}

// EchoHandler returns the decoded body, JSON or form encoded.
func (api *Api) EchoHandler(r *iz.Request) iz.Responder {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var body any = map[string]any{}
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return messageResponse(400, "Invalid request body")
		}
		form := map[string]any{}
		for key, values := range r.PostForm {
			if len(values) == 1 {
				form[key] = values[0]
			} else {
				form[key] = values
			}
		}
		body = form
	default:
		if resp := decodeBody(r, &body); resp != nil {
			return resp
		}
		if body == nil {
			body = map[string]any{}
		}
	}

	resp := EchoResponse{
		Message: "POST received",
		Body:    body,
	}
	return iz.Respond().Status(200).JSON(resp)
}
