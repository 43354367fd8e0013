package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"memchat/internal/config"
	"memchat/internal/logger"
	"memchat/internal/repository/db"
	"memchat/internal/repository/postgres"
	"memchat/pkg/validation"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// ContextWithUserID stores an authenticated user id on the context
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the authenticated user id set by AuthMiddleware
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey).(string)
	return id
}

// Claims is the JWT payload: the user id as subject plus the email for
// display.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Service issues and validates tokens and serves the register and login
// endpoints.
type Service struct {
	database  db.Database
	config    *config.AuthConfig
	validator *validation.AuthRequestValidator
}

func NewService(database db.Database, authConfig *config.AuthConfig) *Service {
	return &Service{
		database:  database,
		config:    authConfig,
		validator: validation.NewAuthRequestValidator(),
	}
}

func sendError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := errorResponse{
		Code:    status,
		Message: message,
	}
	if err != nil {
		errResp.Error = err.Error()
	}
	json.NewEncoder(w).Encode(errResp)
}

// GenerateToken signs a JWT for the user
func (s *Service) GenerateToken(user *db.User) (string, error) {
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.config.TokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.config.JWTSecret)
}

// ValidateToken parses and verifies a JWT, returning its claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.config.JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

// RegisterHandler creates a new user account and returns a token
func (s *Service) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.validator.ValidateRegisterRequest(req.Email, req.Password); err != nil {
		sendError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	user, err := s.database.CreateUser(req.Email, req.Password)
	if err != nil {
		logger.Log.WithError(err).WithField("email", req.Email).Warn("Registration failed")
		if strings.Contains(err.Error(), "already registered") {
			sendError(w, http.StatusConflict, "Email already registered", nil)
			return
		}
		sendError(w, http.StatusInternalServerError, "Error creating user", err)
		return
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		logger.Log.WithError(err).Error("Error generating token")
		sendError(w, http.StatusInternalServerError, "Error generating token", err)
		return
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeTokenResponse(w, token, user)
}

// LoginHandler authenticates a user and returns a token
func (s *Service) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.validator.ValidateLoginRequest(req.Email, req.Password); err != nil {
		sendError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	user, err := s.database.GetUserByEmail(req.Email)
	if err != nil {
		logger.Log.WithField("email", req.Email).Warn("Login failed: user not found")
		sendError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	if !postgres.VerifyPassword(user, req.Password) {
		logger.Log.WithField("email", req.Email).Warn("Login failed: invalid password")
		sendError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		logger.Log.WithError(err).Error("Error generating token")
		sendError(w, http.StatusInternalServerError, "Error generating token", err)
		return
	}

	logger.Log.WithField("user_id", user.ID).Info("User logged in")

	w.Header().Set("Content-Type", "application/json")
	writeTokenResponse(w, token, user)
}

func writeTokenResponse(w http.ResponseWriter, token string, user *db.User) {
	resp := tokenResponse{Token: token}
	resp.User.ID = user.ID
	resp.User.Email = user.Email
	json.NewEncoder(w).Encode(resp)
}

// AuthMiddleware validates the bearer token and stores the user id on the
// request context.
func (s *Service) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			sendError(w, http.StatusUnauthorized, "Missing authorization header", nil)
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
			sendError(w, http.StatusUnauthorized, "Invalid authorization header format", nil)
			return
		}

		claims, err := s.ValidateToken(bearerToken[1])
		if err != nil {
			sendError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}

		ctx := ContextWithUserID(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// OptionalAuthMiddleware resolves the bearer token when one is presented but
// never rejects the request. A missing or invalid token leaves the user id
// empty, so read endpoints downstream serve empty results instead of 401.
func (s *Service) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.ValidateToken(bearerToken[1])
		if err != nil {
			logger.Log.WithError(err).Debug("Ignoring invalid token on optional-auth route")
			next.ServeHTTP(w, r)
			return
		}

		ctx := ContextWithUserID(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
