package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/adityapw/fittrack/internal/telemetry/metrics"
	"github.com/adityapw/fittrack/internal/telemetry/tracing"
	"github.com/adityapw/fittrack/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type contextKey string

const claimsContextKey contextKey = "authClaims"

// ClaimsFromContext returns the verified token claims set by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	Get(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}

type Handler struct {
	repo    usersRepo
	tokens  *TokenService
	metrics *metrics.Manager
}

func NewHandler(
	repo usersRepo,
	tokens *TokenService,
	metrics *metrics.Manager,
) *Handler {
	return &Handler{
		repo:    repo,
		tokens:  tokens,
		metrics: metrics,
	}
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "users.handler.register")
	defer span.End()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		pkg.WriteAPIError(w, err.Error(), http.StatusBadRequest)
		return
	}

	passwordHash, err := pkg.HashPassword(req.Password)
	if err != nil {
		log.Errorf("register: hash password: %s", err)
		pkg.WriteAPIError(w, "registration failed", http.StatusInternalServerError)
		return
	}

	user, err := handler.repo.Add(ctx, User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: passwordHash,
		Nim:          req.Nim,
		Kelompok:     req.Kelompok,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			pkg.WriteAPIError(w, "email already registered", http.StatusBadRequest)
			span.SetStatus(codes.Error, "email-taken")
			return
		}
		log.Errorf("register user [%s]: %s", req.Email, err)
		pkg.WriteAPIError(w, "registration failed", http.StatusInternalServerError)
		return
	}

	token, err := handler.tokens.Generate(user)
	if err != nil {
		log.Errorf("register: generate token for user %d: %s", user.ID, err)
		pkg.WriteAPIError(w, "registration failed", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterRegistrations.Inc()

	pkg.WriteAPIData(w, AuthResponse{User: *user, Token: token}, http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "users.handler.login")
	defer span.End()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		pkg.WriteAPIError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := handler.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// same message as for a wrong password, do not leak which one it was
			pkg.WriteAPIError(w, "invalid email or password", http.StatusUnauthorized)
			span.SetStatus(codes.Error, "unknown-email")
			return
		}
		log.Errorf("login, get user [%s]: %s", req.Email, err)
		pkg.WriteAPIError(w, "login failed", http.StatusInternalServerError)
		return
	}

	if !pkg.CheckPasswordHash(req.Password, user.PasswordHash) {
		pkg.WriteAPIError(w, "invalid email or password", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "wrong-password")
		return
	}

	token, err := handler.tokens.Generate(user)
	if err != nil {
		log.Errorf("login: generate token for user %d: %s", user.ID, err)
		pkg.WriteAPIError(w, "login failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, AuthResponse{User: *user, Token: token}, http.StatusOK)
}

func (handler *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.WriteAPIError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := handler.repo.Get(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteAPIError(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("get user %d: %s", claims.ID, err)
		pkg.WriteAPIError(w, "failed to get user", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, user, http.StatusOK)
}

func (handler *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.WriteAPIError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := handler.repo.Get(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteAPIError(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("update profile, get user %d: %s", claims.ID, err)
		pkg.WriteAPIError(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = strings.ToLower(*req.Email)
	}
	if req.Password != nil {
		if len(*req.Password) < MinPasswordLength {
			pkg.WriteAPIError(w, "password must be at least 6 characters", http.StatusBadRequest)
			return
		}
		passwordHash, err := pkg.HashPassword(*req.Password)
		if err != nil {
			log.Errorf("update profile: hash password: %s", err)
			pkg.WriteAPIError(w, "failed to update profile", http.StatusInternalServerError)
			return
		}
		user.PasswordHash = passwordHash
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.Nim != nil {
		user.Nim = *req.Nim
	}
	if req.Kelompok != nil {
		user.Kelompok = *req.Kelompok
	}

	if err := handler.repo.Update(r.Context(), user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			pkg.WriteAPIError(w, "email already registered", http.StatusBadRequest)
			return
		}
		log.Errorf("update profile for user %d: %s", claims.ID, err)
		pkg.WriteAPIError(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, user, http.StatusOK)
}

// RequireAuth verifies the bearer token and puts its claims into the
// request context. Missing token gets 401, a present but invalid or
// expired one gets 403.
func (handler *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.GlobalTracer.Start(r.Context(), "users.middleware.auth")
		defer span.End()

		authHeader := r.Header.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || token == authHeader {
			log.Tracef("[missing token] unauthorized => %s", r.URL.Path)
			pkg.WriteAPIError(w, "authentication required", http.StatusUnauthorized)
			span.SetStatus(codes.Error, "missing-auth-token")
			return
		}

		claims, err := handler.tokens.Verify(token)
		if err != nil {
			log.Tracef("[invalid token] forbidden => %s: %s", r.URL.Path, err)
			pkg.WriteAPIError(w, "invalid or expired token", http.StatusForbidden)
			span.SetStatus(codes.Error, "invalid-auth-token")
			return
		}

		span.SetStatus(codes.Ok, "ok")
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(ctx, claims)))
	})
}
