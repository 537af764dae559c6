package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gatekeeper/internal/account"
	"gatekeeper/internal/auth"
)

func ListUsers(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.ListUsers(r.Context())
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, users)
	}
}

func CreateUser(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email" validate:"required,email"`
			Name     string `json:"name" validate:"max=120"`
			Password string `json:"password" validate:"required,min=8,max=72"`
			Role     string `json:"role" validate:"max=64"`
			Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
		}
		if err := decode(r, &req); err != nil {
			badRequest(w, err)
			return
		}
		actor, _ := auth.FromContext(r.Context())
		u, err := svc.CreateUser(r.Context(), actor, account.NewUser{
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
			Role:     req.Role,
			Status:   req.Status,
		})
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, u)
	}
}

func ChangeUserRole(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Role string `json:"role" validate:"required,max=64"`
		}
		if err := decode(r, &req); err != nil {
			badRequest(w, err)
			return
		}
		id, ok := userID(w, r)
		if !ok {
			return
		}
		actor, _ := auth.FromContext(r.Context())
		u, err := svc.ChangeRole(r.Context(), actor, id, req.Role)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

func ChangeUserStatus(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status string `json:"status" validate:"required,oneof=active inactive"`
		}
		if err := decode(r, &req); err != nil {
			badRequest(w, err)
			return
		}
		id, ok := userID(w, r)
		if !ok {
			return
		}
		actor, _ := auth.FromContext(r.Context())
		u, err := svc.ChangeStatus(r.Context(), actor, id, req.Status)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

// userID answers 404 for ids that cannot name a user.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return "", false
	}
	return id, true
}
