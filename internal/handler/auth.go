package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/communities/internal/response"
	"github.com/sakif/communities/internal/service"
)

// AuthHandler serves signup, signin and the current-user profile.
//
// Signup and signin answer with the user's public profile as data and the
// bearer token as meta:
//
//	{"status":true,"content":{"data":{"id":..,"name":..,"email":..,"created_at":..},
//	                          "meta":{"access_token":"<jwt>"}}}
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type tokenMeta struct {
	AccessToken string `json:"access_token"`
}

// HandleSignup registers a user.
//
// HTTP: POST /v1/auth/signup
// REQUEST BODY: {"name": "...", "email": "...", "password": "..."}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := response.Decode(r, &in); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Signup(r.Context(), in)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusCreated, res.User.Profile(), tokenMeta{AccessToken: res.Token})
}

// HandleSignin exchanges credentials for a token.
//
// HTTP: POST /v1/auth/signin
// REQUEST BODY: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	var in service.SigninInput
	if err := response.Decode(r, &in); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Signin(r.Context(), in)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, res.User.Profile(), tokenMeta{AccessToken: res.Token})
}

// HandleMe returns the signed-in user's profile.
//
// HTTP: GET /v1/auth/me (requires auth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	me, err := h.auth.Me(r.Context(), user.ID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, me.Profile(), nil)
}
