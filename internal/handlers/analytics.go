package handlers

import (
	"net/http"

	"github.com/expenseer/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// AnalyticsHandler provides HTTP handlers for the derived analytics
// views. All aggregates are recomputed from current rows on every
// request; nothing is cached.
type AnalyticsHandler struct {
	expenseService *services.ExpenseService
}

func NewAnalyticsHandler(expenseService *services.ExpenseService) *AnalyticsHandler {
	return &AnalyticsHandler{expenseService: expenseService}
}

// AnalyticsRouter registers analytics routes on the given router. Every
// route but /all is scoped to the caller's own expenses; /all spans all
// users and is manager-only.
func AnalyticsRouter(
	r chi.Router,
	expenseService *services.ExpenseService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewAnalyticsHandler(expenseService)

	r.Use(authMiddleware)
	r.Get("/monthly", handler.OwnSnapshot)
	r.With(RequireManager(userService)).Get("/all", handler.AllSnapshot)
	r.Get("/categories", handler.OwnCategoryBreakdown)
	r.Get("/trends", handler.OwnMonthlyTrends)
	r.Get("/status", handler.OwnStatusBreakdown)
	r.Get("/recent", handler.OwnRecentExpenses)
}

func (h *AnalyticsHandler) OwnSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	snapshot, err := h.expenseService.Snapshot(r.Context(), &userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *AnalyticsHandler) AllSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.expenseService.Snapshot(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *AnalyticsHandler) OwnCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	breakdown, err := h.expenseService.CategoryBreakdown(r.Context(), &userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *AnalyticsHandler) OwnMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	trends, err := h.expenseService.MonthlyTrends(r.Context(), &userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (h *AnalyticsHandler) OwnStatusBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	breakdown, err := h.expenseService.StatusBreakdown(r.Context(), &userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *AnalyticsHandler) OwnRecentExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	recent, err := h.expenseService.RecentExpenses(r.Context(), &userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	writeJSON(w, http.StatusOK, recent)
}
