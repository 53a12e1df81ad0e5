package handler

import (
	"errors"
	"net/http"

	"github.com/deflogis/convoy/internal/api/request"
	"github.com/deflogis/convoy/internal/api/response"
	"github.com/deflogis/convoy/internal/core"
	"github.com/deflogis/convoy/internal/model"
)

type User struct {
	svc *core.UserService
}

func NewUser(svc *core.UserService) *User {
	return &User{svc: svc}
}

func (h *User) Signup(w http.ResponseWriter, r *http.Request) {
	var req request.UserCredentials
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.Register(r.Context(), req.ID, req.Name, req.Role)
	if err != nil {
		if errors.Is(err, core.ErrUserExists) {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Clearance level is withheld from the registration response.
	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user": map[string]string{
			"id":   user.ID,
			"name": user.Name,
			"role": user.Role,
		},
	})
}

func (h *User) Login(w http.ResponseWriter, r *http.Request) {
	var req request.UserCredentials
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.Login(r.Context(), req.ID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUserNotFound):
			response.WriteError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, core.ErrWrongRole):
			response.WriteError(w, http.StatusUnauthorized, err.Error())
		default:
			response.WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, user)
}

func (h *User) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if users == nil {
		users = []model.User{}
	}
	response.WriteJSON(w, http.StatusOK, users)
}
