package api

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/0xcafe-io/iz"
	"github.com/fatali-fataliyev/expense_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/expense_tracker/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

const TraceIDHeader = "X-Trace-ID"

type RouterOptions struct {
	AllowedOrigins []string
	// RequestTimeout cancels the request context, 0 disables it.
	RequestTimeout time.Duration
}

func NewRouter(api *Api, opts RouterOptions) http.Handler {
	server := http.NewServeMux()

	// HEALTH ENDPOINTS.
	server.HandleFunc("GET /{$}", iz.Bind(api.HealthHandler)) // Health check
	server.HandleFunc("POST /test", iz.Bind(api.EchoHandler)) // Echo request body

	// USER ENDPOINTS.
	server.HandleFunc("POST /register", iz.Bind(api.RegisterHandler)) // Create User
	server.HandleFunc("POST /login", iz.Bind(api.LoginHandler))       // Login User

	// EXPENSE ENDPOINTS.
	server.HandleFunc("GET /expenses", iz.Bind(api.GetExpensesHandler))           // List expenses of a user
	server.HandleFunc("POST /expenses", iz.Bind(api.CreateExpenseHandler))        // Create Expense
	server.HandleFunc("DELETE /expenses/{id}", iz.Bind(api.DeleteExpenseHandler)) // Delete Expense

	// PROFILE ENDPOINTS.
	server.HandleFunc("GET /api/profile/{id}", iz.Bind(api.GetProfileHandler))                     // Get Profile
	server.HandleFunc("PUT /api/profile/{id}", iz.Bind(api.UpdateProfileHandler))                  // Update Profile
	server.HandleFunc("PUT /api/profile/{id}/change-password", iz.Bind(api.ChangePasswordHandler)) // Change Password

	var handler http.Handler = server
	handler = requestLogger(handler)
	if opts.RequestTimeout > 0 {
		handler = middleware.Timeout(opts.RequestTimeout)(handler)
	}
	handler = middleware.RealIP(handler)
	handler = middleware.Recoverer(handler)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsConf := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{TraceIDHeader},
	})
	return corsConf.Handler(handler)
}

// requestLogger tags the request with a trace id, logs its outcome and turns
// a handler panic into a JSON 500.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}
		w.Header().Set(TraceIDHeader, traceID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.Logger.Errorf("[TraceID=%s] | panic while serving %s %s: %v\n%s", traceID, r.Method, r.URL.Path, rec, debug.Stack())
				if ww.Status() == 0 {
					writeMessage(ww, http.StatusInternalServerError, "Server error")
				}
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logging.Logger.WithFields(logrus.Fields{
				"trace_id": traceID,
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   status,
				"duration": time.Since(start).String(),
				"remote":   r.RemoteAddr,
			}).Info("request handled")
		}()

		next.ServeHTTP(ww, r.WithContext(contextutil.WithTraceID(r.Context(), traceID)))
	})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(MessageResponse{Message: message})
}
