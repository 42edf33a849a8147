package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress/inkpress/internal/platform/httpx"
)

// Handler exposes the administrative role and permission endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers role and permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ActionList, ResourceRole))
		r.Get("/roles", h.listRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ActionRead, ResourceRole))
		r.Get("/roles/{roleID}/permissions", h.listRolePermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ActionAssign, ResourcePermission))
		r.Put("/roles/{roleID}/permissions/{permissionID}", h.attachPermission)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ActionRevoke, ResourcePermission))
		r.Delete("/roles/{roleID}/permissions/{permissionID}", h.detachPermission)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ActionList, ResourcePermission))
		r.Get("/permissions", h.listPermissions)
	})
}

type roleResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rank        int    `json:"rank"`
}

type permissionResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Action      Action    `json:"action"`
	Resource    Resource  `json:"resource"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{ID: role.ID, Name: role.Name, Description: role.Description, Rank: role.Rank})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := pathID(r, "roleID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "role id must be numeric")
		return
	}
	perms, err := h.service.ListRolePermissions(r.Context(), roleID)
	if err != nil {
		h.logger.Error("list role permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponses(perms))
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponses(perms))
}

func (h *Handler) attachPermission(w http.ResponseWriter, r *http.Request) {
	roleID, permissionID, ok := h.linkIDs(w, r)
	if !ok {
		return
	}
	if err := h.service.AttachPermission(r.Context(), roleID, permissionID); err != nil {
		h.logger.Error("attach permission", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) detachPermission(w http.ResponseWriter, r *http.Request) {
	roleID, permissionID, ok := h.linkIDs(w, r)
	if !ok {
		return
	}
	if err := h.service.DetachPermission(r.Context(), roleID, permissionID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) linkIDs(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	roleID, err := pathID(r, "roleID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "role id must be numeric")
		return 0, 0, false
	}
	permissionID, err := pathID(r, "permissionID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "permission id must be numeric")
		return 0, 0, false
	}
	return roleID, permissionID, true
}

func toPermissionResponses(perms []Permission) []permissionResponse {
	out := make([]permissionResponse, 0, len(perms))
	for _, perm := range perms {
		out = append(out, permissionResponse{
			ID:          perm.ID,
			Name:        perm.Name,
			Action:      perm.Action,
			Resource:    perm.Resource,
			Condition:   perm.Condition,
			Description: perm.Description,
			CreatedAt:   perm.CreatedAt,
		})
	}
	return out
}

func pathID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
