package designation

import (
	"context"
	"net/http"

	"github.com/frahmantamala/feedback-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Designation, error)
	Create(ctx context.Context, dto CreateDesignationDTO) (*Designation, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// ListDesignations handles GET /designations
func (h *Handler) ListDesignations(w http.ResponseWriter, r *http.Request) {
	designations, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Designations: designations})
}

// CreateDesignation handles POST /designations. Admin only, enforced by the router.
func (h *Handler) CreateDesignation(w http.ResponseWriter, r *http.Request) {
	var dto CreateDesignationDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	created, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}
