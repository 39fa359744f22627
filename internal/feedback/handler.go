package feedback

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/transport"
)

type ServiceAPI interface {
	Submit(ctx context.Context, caller *internal.User, dto SubmitFeedbackDTO) (*Submission, error)
	ListMine(ctx context.Context, caller *internal.User) ([]*Submission, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*Submission, error)
	AdminFilter(ctx context.Context, dto AdminFilterDTO) ([]*Submission, error)
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

// SubmitFeedback handles POST /feedback/submit
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto SubmitFeedbackDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	created, err := h.Service.Submit(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

// ListMyFeedback handles GET /feedback/my, optionally narrowed to another
// submitter with ?employee_id=
func (h *Handler) ListMyFeedback(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var (
		submissions []*Submission
		err         error
	)
	if raw := r.URL.Query().Get("employee_id"); raw != "" {
		employeeID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("employee_id",
				"employee_id must be a number.", internal.ErrCodeInvalidParameter))
			return
		}
		submissions, err = h.Service.ListByEmployee(r.Context(), employeeID)
	} else {
		submissions, err = h.Service.ListMine(r.Context(), caller)
	}
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Submissions: submissions})
}

// AdminFilter handles GET /feedback/admin with query parameters and
// POST /feedback/admin with the same fields as a JSON body.
func (h *Handler) AdminFilter(w http.ResponseWriter, r *http.Request) {
	var dto AdminFilterDTO
	if r.Method == http.MethodPost {
		if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
			h.WriteAppError(w, appErr)
			return
		}
	} else {
		query := r.URL.Query()
		dto = AdminFilterDTO{
			Designation: FilterValue(query.Get("designation")),
			Department:  query.Get("department"),
			StartDate:   query.Get("start_date"),
			EndDate:     query.Get("end_date"),
		}
	}

	submissions, err := h.Service.AdminFilter(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Submissions: submissions})
}
