package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/communities/internal/response"
	"github.com/sakif/communities/internal/service"
)

type MemberHandler struct {
	members *service.MemberService
	logger  *slog.Logger
}

func NewMemberHandler(members *service.MemberService, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: members, logger: logger}
}

// HandleAdd adds a user to a community with a role. Only the community's
// owner may do this.
//
// HTTP: POST /v1/member (requires auth)
// REQUEST BODY: {"community": "<id>", "user": "<id>", "role": "<id>"}
func (h *MemberHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in service.AddMemberInput
	if err := response.Decode(r, &in); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	member, err := h.members.Add(r.Context(), user.ID, in)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusCreated, member, nil)
}

// HandleRemove deletes a membership. The caller must be an admin or
// moderator of the same community.
//
// HTTP: DELETE /v1/member/{id} (requires auth)
func (h *MemberHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.members.Remove(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.OK(w, r)
}
