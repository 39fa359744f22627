package question

import (
	"context"
	"net/http"

	"github.com/frahmantamala/feedback-management/internal/transport"
)

type ServiceAPI interface {
	ListActive(ctx context.Context, feedbackType string) ([]*Question, error)
	Create(ctx context.Context, dto CreateQuestionDTO) (*Question, error)
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

// ListQuestions handles GET /questions?type=employee|trainer. feedback_type is
// accepted as an alias of type.
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	feedbackType := query.Get("type")
	if feedbackType == "" {
		feedbackType = query.Get("feedback_type")
	}

	questions, err := h.Service.ListActive(r.Context(), feedbackType)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Questions: questions})
}

// CreateQuestion handles POST /questions
func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var dto CreateQuestionDTO
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
