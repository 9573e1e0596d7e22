package http

import (
	"net/http"

	authapp "github.com/dmehra2102/storefront-core/internal/auth/application"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in authapp.RegisterInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Auth.Register(r.Context(), in)
	h.reply(w, r, http.StatusCreated, v, err)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	tok, err := h.deps.Auth.Login(r.Context(), in.Email, in.Password)
	h.reply(w, r, http.StatusOK, tok, err)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Auth.Me(r.Context())
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Current string `json:"currentPassword"`
		Next    string `json:"newPassword"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	err := h.deps.Auth.ChangePassword(r.Context(), userID(r), in.Current, in.Next)
	h.reply(w, r, http.StatusNoContent, nil, err)
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Auth.VerifyEmail(r.Context(), userID(r))
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Users.Get(r.Context(), userID(r))
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FullName string `json:"fullName"`
		Phone    string `json:"phone"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Users.UpdateProfile(r.Context(), userID(r), in.FullName, in.Phone)
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) changeEmail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Users.ChangeEmail(r.Context(), userID(r), in.Email)
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	err := h.deps.Users.Delete(r.Context(), userID(r))
	h.reply(w, r, http.StatusNoContent, nil, err)
}
