package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/communities/internal/response"
	"github.com/sakif/communities/internal/service"
)

// CommunityHandler serves community creation and the four community lists.
// Every list is paginated with ?page= (zero-based, 10 per page).
type CommunityHandler struct {
	communities *service.CommunityService
	logger      *slog.Logger
}

func NewCommunityHandler(communities *service.CommunityService, logger *slog.Logger) *CommunityHandler {
	return &CommunityHandler{communities: communities, logger: logger}
}

// HandleCreate creates a community owned by the caller.
//
// HTTP: POST /v1/community (requires auth)
// REQUEST BODY: {"name": "Go Gophers"}
func (h *CommunityHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in service.CreateCommunityInput
	if err := response.Decode(r, &in); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	community, err := h.communities.Create(r.Context(), user.ID, in)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusCreated, community, nil)
}

// HandleList returns every community with its owner.
//
// HTTP: GET /v1/community
func (h *CommunityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res, err := h.communities.List(r.Context(), pageParam(r))
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	writePage(w, r, res)
}

// HandleListMembers returns the members of one community.
//
// HTTP: GET /v1/community/{id}/members
func (h *CommunityHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	res, err := h.communities.ListMembers(r.Context(), chi.URLParam(r, "id"), pageParam(r))
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	writePage(w, r, res)
}

// HandleListOwned returns the communities the caller owns.
//
// HTTP: GET /v1/community/me/owner (requires auth)
func (h *CommunityHandler) HandleListOwned(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	res, err := h.communities.ListOwned(r.Context(), user.ID, pageParam(r))
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	writePage(w, r, res)
}

// HandleListJoined returns the communities the caller is a member of.
//
// HTTP: GET /v1/community/me/member (requires auth)
func (h *CommunityHandler) HandleListJoined(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	res, err := h.communities.ListJoined(r.Context(), user.ID, pageParam(r))
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	writePage(w, r, res)
}
