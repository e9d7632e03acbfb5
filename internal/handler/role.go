package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/communities/internal/response"
	"github.com/sakif/communities/internal/service"
)

type RoleHandler struct {
	roles  *service.RoleService
	logger *slog.Logger
}

func NewRoleHandler(roles *service.RoleService, logger *slog.Logger) *RoleHandler {
	return &RoleHandler{roles: roles, logger: logger}
}

// HandleCreate creates a role.
//
// HTTP: POST /v1/role
// REQUEST BODY: {"name": "Community Moderator"}
func (h *RoleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateRoleInput
	if err := response.Decode(r, &in); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	role, err := h.roles.Create(r.Context(), in)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusCreated, role, nil)
}

// HandleList returns one page of roles.
//
// HTTP: GET /v1/role?page=0
func (h *RoleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res, err := h.roles.List(r.Context(), pageParam(r))
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	writePage(w, r, res)
}
