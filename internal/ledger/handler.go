package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reventa-app/reventa/internal/platform/httpx"
)

// Handler exposes the ledger as a thin JSON surface.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountResellerRoutes registers /resellers endpoints.
func (h *Handler) MountResellerRoutes(r chi.Router) {
	r.Get("/", h.listResellers)
	r.Post("/", h.createReseller)
	r.Get("/{id}", h.getReseller)
	r.Put("/{id}", h.renameReseller)
	r.Delete("/{id}", h.deleteReseller)
	r.Get("/{id}/balance", h.getBalance)
	r.Get("/{id}/movements", h.listMovements)
	r.Post("/{id}/movements", h.appendMovement)
	r.Get("/{id}/outgoings", h.listOutgoings)
}

// MountMovementRoutes registers /movements endpoints.
func (h *Handler) MountMovementRoutes(r chi.Router) {
	r.Get("/{id}", h.getMovement)
	r.Put("/{id}", h.updateMovement)
	r.Delete("/{id}", h.deleteMovement)
}

type resellerRequest struct {
	Name string `json:"name" validate:"required"`
}

type movementRequest struct {
	Date        string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Kind        string  `json:"kind" validate:"required,oneof=payment return delivery_debit"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Amount      float64 `json:"amount"`
	Channel     *string `json:"channel"`
	DeliverySeq *int64  `json:"delivery_seq"`
}

func (h *Handler) listResellers(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListResellers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("list resellers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createReseller(w http.ResponseWriter, r *http.Request) {
	var req resellerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.CreateReseller(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("create reseller", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) getReseller(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	res, err := h.service.GetReseller(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) renameReseller(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req resellerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RenameReseller(r.Context(), id, req.Name); err != nil {
		h.logger.Error("rename reseller", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "name": req.Name})
}

func (h *Handler) deleteReseller(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteReseller(r.Context(), id); err != nil {
		h.logger.Error("delete reseller", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	balance, err := h.service.Balance(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"reseller_id": id, "balance": balance})
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	out, err := h.service.ListMovements(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listOutgoings(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	out, err := h.service.ListOutgoings(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) appendMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.AppendMovement(r.Context(), AppendMovementInput{
		ResellerID:  id,
		Date:        parseDay(req.Date),
		Kind:        MovementKind(req.Kind),
		Description: req.Description,
		Quantity:    req.Quantity,
		Amount:      req.Amount,
		Channel:     req.Channel,
		DeliverySeq: req.DeliverySeq,
	})
	if err != nil {
		h.logger.Error("append movement", slog.Any("error", err), slog.Int64("reseller_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) getMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	m, err := h.service.GetMovement(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) updateMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	err := h.service.UpdateMovement(r.Context(), id, UpdateMovementInput{
		Date:        parseDay(req.Date),
		Kind:        MovementKind(req.Kind),
		Description: req.Description,
		Quantity:    req.Quantity,
		Amount:      req.Amount,
		Channel:     req.Channel,
	})
	if err != nil {
		h.logger.Error("update movement", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteMovement(r.Context(), id); err != nil {
		h.logger.Error("delete movement", slog.Any("error", err), slog.Int64("id", id))
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

func parseDay(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse("2006-01-02", s)
	return t
}
