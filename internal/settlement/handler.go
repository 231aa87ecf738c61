package settlement

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reventa-app/reventa/internal/platform/httpx"
)

// Handler exposes the settlement rollups as a thin JSON surface.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers /settlement endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/months", h.availableMonths)
	r.Post("/expenses", h.addExpense)
	r.Delete("/expenses/{id}", h.deleteExpense)
	r.Post("/payouts", h.addPayout)
	r.Delete("/payouts/{id}", h.deletePayout)
	r.Get("/{month}", h.monthOverview)
	r.Get("/{month}/expenses", h.listExpenses)
	r.Get("/{month}/payouts", h.listPayouts)
}

type expenseRequest struct {
	Date   string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Label  string  `json:"label" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

type payoutRequest struct {
	Date   string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Note   string  `json:"note"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

func (h *Handler) availableMonths(w http.ResponseWriter, r *http.Request) {
	months, err := h.service.AvailableMonths(r.Context())
	if err != nil {
		h.logger.Error("available months", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"months": months})
}

func (h *Handler) monthOverview(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")
	out, err := h.service.MonthOverview(r.Context(), month)
	if err != nil {
		h.logger.Error("month overview", slog.Any("error", err), slog.String("month", month))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListExpenses(r.Context(), chi.URLParam(r, "month"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) addExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.AddExpense(r.Context(), ExpenseInput{
		Date:   parseDay(req.Date),
		Label:  req.Label,
		Amount: req.Amount,
	})
	if err != nil {
		h.logger.Error("add expense", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		h.logger.Error("delete expense", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPayouts(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListPayouts(r.Context(), chi.URLParam(r, "month"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) addPayout(w http.ResponseWriter, r *http.Request) {
	var req payoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.AddPayout(r.Context(), PayoutInput{
		Date:   parseDay(req.Date),
		Note:   req.Note,
		Amount: req.Amount,
	})
	if err != nil {
		h.logger.Error("add payout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) deletePayout(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeletePayout(r.Context(), id); err != nil {
		h.logger.Error("delete payout", slog.Any("error", err), slog.Int64("id", id))
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
