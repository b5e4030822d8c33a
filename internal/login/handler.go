package login

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyCodeRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	RoleID    string `json:"roleId"`
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

// IdentifyUser handles step A of the login flow.
func (h *Handler) IdentifyUser(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.service.Identify(r.Context(), body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, ErrAccountLocked):
			writeError(w, http.StatusUnauthorized, "account is locked")
		default:
			h.log.Error("identify failed", zap.Error(err))
			sentry.CaptureException(err)
			writeError(w, http.StatusServiceUnavailable, "identification failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// VerifyCode handles step B of the login flow.
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var body verifyCodeRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.UserID = strings.TrimSpace(body.UserID)
	body.Code = strings.TrimSpace(body.Code)
	if body.UserID == "" || body.Code == "" {
		writeError(w, http.StatusBadRequest, "userId and code are required")
		return
	}

	result, err := h.service.VerifyCode(r.Context(), body.UserID, body.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCode), errors.Is(err, ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "invalid code")
		case errors.Is(err, ErrCodeAlreadyUsed):
			writeError(w, http.StatusUnauthorized, "code already used")
		case errors.Is(err, ErrStorageUnavailable):
			h.log.Error("verify persistence failed", zap.Error(err))
			sentry.CaptureException(err)
			writeError(w, http.StatusServiceUnavailable, "verification temporarily unavailable")
		default:
			h.log.Error("verify failed", zap.Error(err))
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "verification failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Register creates a user with a generated temporary password.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := validateRegisterRequest(&body); err != nil {
		h.log.Warn("invalid register request",
			zap.String("error", err.Error()),
			zap.String("email", body.Email))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), body.FirstName, body.LastName, body.Email, body.RoleID)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.log.Error("failed to register user", zap.Error(err))
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ResetPassword replaces the caller's password with a generated one. The
// response does not reveal whether the email exists.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetPasswordRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.service.ResetPassword(r.Context(), body.Email); err != nil {
		h.log.Error("failed to reset password", zap.Error(err))
		sentry.CaptureException(err)
		writeError(w, http.StatusServiceUnavailable, "failed to reset password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a new password was sent"})
}

// ListUsers returns all users. Protected by the usuarios/listar requirement.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		sentry.CaptureException(err)
		writeError(w, http.StatusServiceUnavailable, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func validateRegisterRequest(body *registerRequest) error {
	body.FirstName = strings.TrimSpace(body.FirstName)
	body.LastName = strings.TrimSpace(body.LastName)
	body.Email = strings.TrimSpace(body.Email)
	body.RoleID = strings.TrimSpace(body.RoleID)

	if body.FirstName == "" {
		return errors.New("firstName is required")
	}
	if body.LastName == "" {
		return errors.New("lastName is required")
	}
	if body.Email == "" {
		return errors.New("email is required")
	}
	if !isValidEmail(body.Email) {
		return errors.New("invalid email format")
	}
	if body.RoleID == "" {
		return errors.New("roleId is required")
	}
	return nil
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
