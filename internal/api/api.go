package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	deliveryAuth "github.com/MrEthical07/deliveryAuth"
	"github.com/MrEthical07/deliveryAuth/logging"
	"github.com/MrEthical07/deliveryAuth/middleware"
	"github.com/MrEthical07/deliveryAuth/permission"
)

const maxBodyBytes = 64 << 10

// Engine is the subset of *deliveryAuth.Engine served over HTTP.
type Engine interface {
	Login(ctx context.Context, loginIdentifier, password string) (deliveryAuth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (deliveryAuth.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, accountID int64) error
	Authenticate(ctx context.Context, authorizationHeader string) (deliveryAuth.Identity, bool)
}

// Options configures optional parts of the API.
type Options struct {
	Logger logging.Logger
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Health is called by /healthz; nil always reports ok.
	Health func(ctx context.Context) error
	// TrustProxy takes the client IP from the first X-Forwarded-For entry.
	TrustProxy bool
}

// API holds the handlers and their dependencies.
type API struct {
	engine     Engine
	logger     logging.Logger
	metrics    http.Handler
	health     func(ctx context.Context) error
	trustProxy bool
}

// New returns an API serving engine.
func New(engine Engine, opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	return &API{
		engine:     engine,
		logger:     logger,
		metrics:    opts.Metrics,
		health:     opts.Health,
		trustProxy: opts.TrustProxy,
	}
}

// Router builds the gorilla/mux router for every route.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.requestContext)
	r.Use(middleware.Authenticate(a.engine))

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", a.Login()).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", a.Refresh()).Methods(http.MethodPost)
	auth.HandleFunc("/logout", a.Logout()).Methods(http.MethodPost)
	auth.Handle("/logout-all", middleware.RequireAuthenticated(a.LogoutAll())).Methods(http.MethodPost)
	auth.Handle("/me", middleware.RequireAuthenticated(a.Me())).Methods(http.MethodGet)

	r.Handle("/admin/ping", middleware.RequireRole(permission.RoleAdmin)(a.AdminPing())).Methods(http.MethodGet)
	r.HandleFunc("/healthz", a.Health()).Methods(http.MethodGet)
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics).Methods(http.MethodGet)
	}

	return r
}

// Server wraps the router in an http.Server with conservative timeouts.
func (a *API) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func decodeRequest[T any](req *T, w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request")
		return false
	}
	return true
}

func returnJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code string) {
	returnJSON(w, status, errorResponse{Error: code})
}
