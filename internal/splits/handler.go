package splits

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reventa-app/reventa/internal/platform/httpx"
)

// Handler exposes the splitter as a thin JSON surface.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountPaymentRoutes registers /payments endpoints.
func (h *Handler) MountPaymentRoutes(r chi.Router) {
	r.Get("/", h.listMonthPayments)
	r.Get("/{id}/splits", h.getOrInitSplits)
	r.Post("/{id}/splits", h.addSplit)
}

// MountSplitRoutes registers /splits endpoints.
func (h *Handler) MountSplitRoutes(r chi.Router) {
	r.Put("/{id}", h.updateSplit)
	r.Delete("/{id}", h.deleteSplit)
}

type addSplitRequest struct {
	Portion float64 `json:"portion" validate:"gte=0"`
}

type updateSplitRequest struct {
	Portion float64 `json:"portion" validate:"gte=0"`
	Divisor int     `json:"divisor" validate:"required,min=1"`
	Settled bool    `json:"settled"`
}

func (h *Handler) listMonthPayments(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	out, err := h.service.ListMonthPayments(r.Context(), month)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getOrInitSplits(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	out, err := h.service.GetOrInitSplits(r.Context(), id)
	if err != nil {
		h.logger.Error("get splits", slog.Any("error", err), slog.Int64("payment_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) addSplit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req addSplitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.AddSplit(r.Context(), id, req.Portion)
	if err != nil {
		h.logger.Error("add split", slog.Any("error", err), slog.Int64("payment_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateSplit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req updateSplitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.UpdateSplit(r.Context(), id, UpdateSplitInput{
		Portion: req.Portion,
		Divisor: req.Divisor,
		Settled: req.Settled,
	})
	if err != nil {
		h.logger.Error("update split", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteSplit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSplit(r.Context(), id); err != nil {
		h.logger.Error("delete split", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}
