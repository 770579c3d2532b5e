package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/expenseer/apiserver/internal/policy"
	"github.com/expenseer/apiserver/internal/services"
	"github.com/expenseer/apiserver/internal/store"
	"github.com/expenseer/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxReceiptMemory = 16 << 20
	maxReceiptBytes  = 32 << 20
	formFieldReceipt = "receipt"
)

// ExpenseHandler provides HTTP handlers for expenses.
type ExpenseHandler struct {
	expenseService  *services.ExpenseService
	userService     *services.UserService
	categoryService *services.CategoryService
}

// NewExpenseHandler constructs a handler with the provided services.
func NewExpenseHandler(
	expenseService *services.ExpenseService,
	userService *services.UserService,
	categoryService *services.CategoryService,
) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService:  expenseService,
		userService:     userService,
		categoryService: categoryService,
	}
}

// ExpenseRouter registers expense routes on the given router. All routes
// require authentication; the manager-only ones additionally pass
// through RequireManager.
func ExpenseRouter(
	r chi.Router,
	expenseService *services.ExpenseService,
	userService *services.UserService,
	categoryService *services.CategoryService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewExpenseHandler(expenseService, userService, categoryService)
	requireManager := RequireManager(userService)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateExpense)
	r.Get("/user", handler.ListOwnExpenses)
	r.With(requireManager).Get("/", handler.ListAllExpenses)
	r.With(requireManager).Get("/status/{status}", handler.ListExpensesByStatus)
	r.Route("/{expenseID}", func(r chi.Router) {
		r.Get("/", handler.GetExpense)
		r.With(requireManager).Put("/approve", handler.ApproveExpense)
		r.With(requireManager).Put("/reject", handler.RejectExpense)
		r.Post("/receipt", handler.UploadReceipt)
		r.Get("/receipt", handler.DownloadReceipt)
	})
}

// ExpenseCreateRequest is the submission payload. Status is not
// accepted; every new expense starts pending.
type ExpenseCreateRequest struct {
	Title       string    `json:"title"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CategoryID  int       `json:"category_id"`
}

// MessageResponse is a simple confirmation payload.
type MessageResponse struct {
	Message string `json:"message"`
}

func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ExpenseCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Title == "" || req.Date.IsZero() || req.CategoryID < 1 {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	category, err := h.categoryService.Get(r.Context(), req.CategoryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create expense")
		return
	}

	created, err := h.expenseService.Create(r.Context(), types.Expense{
		Title:       req.Title,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
		UserID:      userID,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create expense")
		return
	}

	created.CategoryName = category.Name
	writeJSON(w, http.StatusCreated, created)
}

func (h *ExpenseHandler) ListOwnExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	skip, limit, err := parseSkipLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := h.expenseService.ListByUser(r.Context(), userID, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *ExpenseHandler) ListAllExpenses(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := parseSkipLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := h.expenseService.ListAll(r.Context(), skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *ExpenseHandler) ListExpensesByStatus(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")
	if !types.IsValidStatus(status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	skip, limit, err := parseSkipLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := h.expenseService.ListByStatus(r.Context(), status, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// GetExpense resolves existence before ownership: a missing id is 404
// for every caller, and 403 is only returned for an expense that exists
// but belongs to someone else.
func (h *ExpenseHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	expense, _, ok := h.loadAccessibleExpense(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

func (h *ExpenseHandler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	h.decideExpense(w, r, types.StatusApproved)
}

func (h *ExpenseHandler) RejectExpense(w http.ResponseWriter, r *http.Request) {
	h.decideExpense(w, r, types.StatusRejected)
}

func (h *ExpenseHandler) decideExpense(w http.ResponseWriter, r *http.Request, status string) {
	managerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseExpenseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if status == types.StatusApproved {
		err = h.expenseService.Approve(r.Context(), id, managerID)
	} else {
		err = h.expenseService.Reject(r.Context(), id, managerID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update expense")
		return
	}

	if status == types.StatusApproved {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Expense approved successfully"})
	} else {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Expense rejected successfully"})
	}
}

func (h *ExpenseHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	expense, _, ok := h.loadAccessibleExpense(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxReceiptMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile(formFieldReceipt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "receipt file is required")
		return
	}
	defer file.Close()

	if header.Size > maxReceiptBytes {
		writeError(w, http.StatusBadRequest, "receipt file too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	err = h.expenseService.AttachReceipt(r.Context(), expense.ID, header.Filename, contentType, file, header.Size)
	if err != nil {
		if errors.Is(err, services.ErrReceiptsDisabled) {
			writeError(w, http.StatusServiceUnavailable, "receipt storage unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to store receipt")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Receipt uploaded successfully"})
}

func (h *ExpenseHandler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	expense, _, ok := h.loadAccessibleExpense(w, r)
	if !ok {
		return
	}

	if expense.ReceiptKey == "" {
		writeError(w, http.StatusNotFound, "no receipt attached")
		return
	}

	reader, err := h.expenseService.OpenReceipt(r.Context(), expense)
	if err != nil {
		if errors.Is(err, services.ErrReceiptsDisabled) {
			writeError(w, http.StatusServiceUnavailable, "receipt storage unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read receipt")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+expense.ReceiptFilename+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

// loadAccessibleExpense resolves the caller and the expense, writes the
// appropriate error response when either is missing or access is denied,
// and reports whether the caller may proceed.
func (h *ExpenseHandler) loadAccessibleExpense(w http.ResponseWriter, r *http.Request) (types.Expense, types.User, bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.Expense{}, types.User{}, false
	}

	id, err := parseExpenseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.Expense{}, types.User{}, false
	}

	// Existence first, then ownership.
	expense, err := h.expenseService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return types.Expense{}, types.User{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch expense")
		return types.Expense{}, types.User{}, false
	}

	caller, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return types.Expense{}, types.User{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return types.Expense{}, types.User{}, false
	}

	if !policy.CanAccessExpense(caller, expense) {
		writeError(w, http.StatusForbidden, "not enough permissions")
		return types.Expense{}, types.User{}, false
	}

	return expense, caller, true
}

func parseExpenseID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "expenseID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid expense id")
	}
	return id, nil
}
