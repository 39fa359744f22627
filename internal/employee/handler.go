package employee

import (
	"context"
	"net/http"

	"github.com/frahmantamala/feedback-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Employee, error)
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

type ListResponse struct {
	Employees []*Employee `json:"employees"`
}

// ListEmployees handles GET /employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if employees == nil {
		employees = []*Employee{}
	}
	h.WriteJSON(w, http.StatusOK, ListResponse{Employees: employees})
}
