package delivery

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reventa-app/reventa/internal/ledger"
	"github.com/reventa-app/reventa/internal/platform/httpx"
)

// Recorder counts committed deliveries for the metrics registry.
type Recorder interface {
	DeliveryPosted()
}

// MovementSource fetches ledger entries for back-reference resolution.
type MovementSource interface {
	GetMovement(ctx context.Context, id int64) (*ledger.Movement, error)
}

// Handler exposes delivery endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	metrics   Recorder
	movements MovementSource
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// SetRecorder wires the delivery counter; nil leaves it unrecorded.
func (h *Handler) SetRecorder(rec Recorder) {
	h.metrics = rec
}

// SetMovementSource wires the ledger lookup used by the resolution route.
func (h *Handler) SetMovementSource(src MovementSource) {
	h.movements = src
}

// MountRoutes registers /deliveries endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listDeliveries)
	r.Post("/", h.postDelivery)
	r.Get("/{id}", h.getDelivery)
	r.Delete("/{id}", h.deleteDelivery)
	r.Get("/{id}/items", h.getItems)
	r.Get("/{id}/receipt", h.getReceipt)
}

// MountMovementRoutes registers the movement-to-delivery resolution route,
// mounted alongside the ledger's /movements endpoints.
func (h *Handler) MountMovementRoutes(r chi.Router) {
	r.Get("/{id}/delivery", h.movementDelivery)
}

func (h *Handler) movementDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if h.movements == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "movement lookup not configured")
		return
	}
	m, err := h.movements.GetMovement(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.ResolveMovementDelivery(r.Context(), *m)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

type postDeliveryRequest struct {
	ResellerID *int64      `json:"reseller_id"`
	BuyerName  string      `json:"buyer_name"`
	Date       string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Items      []ItemInput `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) postDelivery(w http.ResponseWriter, r *http.Request) {
	var req postDeliveryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var date time.Time
	if req.Date != "" {
		date, _ = time.Parse("2006-01-02", req.Date)
	}
	result, err := h.service.PostDelivery(r.Context(), PostDeliveryInput{
		Buyer: Buyer{ResellerID: req.ResellerID, Name: req.BuyerName},
		Date:  date,
		Items: req.Items,
	})
	if err != nil {
		h.logger.Error("post delivery", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.DeliveryPosted()
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListDeliveries(r.Context())
	if err != nil {
		h.logger.Error("list deliveries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	d, err := h.service.GetDelivery(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) deleteDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteDelivery(r.Context(), id); err != nil {
		h.logger.Error("delete delivery", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getItems(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	items, err := h.service.GetDeliveryItems(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) getReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	receipt, err := h.service.BuildReceipt(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}
