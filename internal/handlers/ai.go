package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/expenseer/apiserver/internal/services"
	"github.com/expenseer/apiserver/internal/store"
	"github.com/expenseer/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const defaultSummaryDays = 30

// AIHandler provides the insight endpoints. Remote failures never reach
// the caller as errors; every response carries usable text.
type AIHandler struct {
	insightService *services.InsightService
	expenseService *services.ExpenseService
	userService    *services.UserService
}

func NewAIHandler(
	insightService *services.InsightService,
	expenseService *services.ExpenseService,
	userService *services.UserService,
) *AIHandler {
	return &AIHandler{
		insightService: insightService,
		expenseService: expenseService,
		userService:    userService,
	}
}

// AIRouter registers insight routes on the given router.
func AIRouter(
	r chi.Router,
	insightService *services.InsightService,
	expenseService *services.ExpenseService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewAIHandler(insightService, expenseService, userService)

	r.Use(authMiddleware)
	r.Post("/summary", handler.Summary)
	r.Post("/predict-category", handler.PredictCategory)
	r.Post("/budget-recommendations", handler.BudgetRecommendations)
}

type SummaryRequest struct {
	Days int `json:"days"`
}

type SummaryResponse struct {
	Insights      string  `json:"insights"`
	TotalExpenses int     `json:"total_expenses"`
	TotalAmount   float64 `json:"total_amount"`
}

type PredictCategoryRequest struct {
	Title       string  `json:"title"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type PredictCategoryResponse struct {
	PredictedCategory string `json:"predicted_category"`
	Confidence        string `json:"confidence"`
}

type BudgetRequest struct {
	MonthlyBudget float64 `json:"monthly_budget"`
}

type BudgetResponse struct {
	Recommendations string  `json:"recommendations"`
	MonthlyBudget   float64 `json:"monthly_budget"`
	TotalSpent      float64 `json:"total_spent"`
	RemainingBudget float64 `json:"remaining_budget"`
}

func (h *AIHandler) Summary(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.loadCaller(w, r)
	if !ok {
		return
	}

	var req SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Days <= 0 {
		req.Days = defaultSummaryDays
	}

	records, err := h.expenseService.RecentRecords(r.Context(), caller.ID, req.Days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load expenses")
		return
	}

	if len(records) == 0 {
		writeJSON(w, http.StatusOK, SummaryResponse{
			Insights: "No expenses found for analysis. Start by adding some expenses to get personalized insights.",
		})
		return
	}

	insights := h.insightService.AnalyzeExpenses(r.Context(), records, caller.FullName)
	writeJSON(w, http.StatusOK, SummaryResponse{
		Insights:      insights,
		TotalExpenses: len(records),
		TotalAmount:   services.TotalAmount(records).InexactFloat64(),
	})
}

func (h *AIHandler) PredictCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.loadCaller(w, r); !ok {
		return
	}

	var req PredictCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	predicted := h.insightService.PredictCategory(r.Context(), req.Title, req.Amount, req.Description)
	writeJSON(w, http.StatusOK, PredictCategoryResponse{
		PredictedCategory: predicted,
		Confidence:        "high",
	})
}

func (h *AIHandler) BudgetRecommendations(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.loadCaller(w, r)
	if !ok {
		return
	}

	var req BudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	records, err := h.expenseService.RecentRecords(r.Context(), caller.ID, defaultSummaryDays)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load expenses")
		return
	}

	if len(records) == 0 {
		writeJSON(w, http.StatusOK, BudgetResponse{
			Recommendations: "No expense data available for budget recommendations. Start by adding some expenses.",
			MonthlyBudget:   req.MonthlyBudget,
			RemainingBudget: req.MonthlyBudget,
		})
		return
	}

	recommendations := h.insightService.BudgetRecommendations(r.Context(), records, req.MonthlyBudget)
	spent := services.TotalAmount(records).InexactFloat64()
	writeJSON(w, http.StatusOK, BudgetResponse{
		Recommendations: recommendations,
		MonthlyBudget:   req.MonthlyBudget,
		TotalSpent:      spent,
		RemainingBudget: req.MonthlyBudget - spent,
	})
}

func (h *AIHandler) loadCaller(w http.ResponseWriter, r *http.Request) (types.User, bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.User{}, false
	}

	caller, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return types.User{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return types.User{}, false
	}
	return caller, true
}
