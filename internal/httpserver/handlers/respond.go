package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"gatekeeper/internal/account"
	"gatekeeper/internal/rbac"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func respondJSON(w http.ResponseWriter, v any) {
	respondStatus(w, http.StatusOK, v)
}

func respondStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// decode reads a JSON body into v and runs its validate tags.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return validate.Struct(v)
}

func badRequest(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		http.Error(w, "invalid "+verrs[0].Field(), http.StatusBadRequest)
		return
	}
	http.Error(w, "malformed request", http.StatusBadRequest)
}

// respondError maps domain errors onto status codes. Anything unrecognised
// is treated as a store failure.
func respondError(w http.ResponseWriter, lg *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
	case errors.Is(err, account.ErrInactiveAccount):
		http.Error(w, "account inactive", http.StatusForbidden)
	case errors.Is(err, account.ErrForbidden), errors.Is(err, rbac.ErrProtectedRole):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, account.ErrEmailTaken), errors.Is(err, rbac.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, rbac.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, rbac.ErrInvalid), errors.Is(err, account.ErrUnknownRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		lg.Errorw("request failed", "error", err)
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
	}
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}
