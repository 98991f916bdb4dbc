package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"budgetboard/internal/budget"
	"budgetboard/internal/core"
	"budgetboard/internal/query"
	"budgetboard/internal/report"
	"budgetboard/internal/store"
	"budgetboard/internal/workbook"
	"budgetboard/internal/workbook/xlsx"
)

const maxImportBytes = 16 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels onto HTTP statuses: not-found 404,
// invariant violations 409, validation and import failures 422.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrMemberNotFound),
		errors.Is(err, core.ErrExpenseNotFound),
		errors.Is(err, core.ErrExitNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateExit):
		status = http.StatusConflict
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyEvent),
		errors.Is(err, core.ErrInvalidRole),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, workbook.ErrImportFailed):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// sanitizeInput removes potentially dangerous characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	// Remove control characters except tab, newline, carriage return
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1 // remove character
		}
		return r
	}, s)
	return result
}

// --- overview and config ---

type overviewResponse struct {
	Team         budget.Overview `json:"team"`
	Connectivity budget.Overview `json:"connectivity"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	cfg, members, expenses, attrition := s.store.Snapshot()
	writeJSON(w, http.StatusOK, overviewResponse{
		Team:         budget.BuildOverview(members, expenses, attrition, cfg.CurrentMonth, core.CategoryTeam),
		Connectivity: budget.BuildOverview(members, expenses, attrition, cfg.CurrentMonth, core.CategoryConnectivity),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Config())
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var cfg core.BudgetConfig
	if !decodeBody(w, r, &cfg) {
		return
	}
	if err := s.store.SaveConfig(r.Context(), cfg); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// --- members ---

type memberRequest struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Leader string `json:"leader"`
}

func (req memberRequest) params(w http.ResponseWriter, r *http.Request) (store.MemberParams, bool) {
	role, err := core.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, err)
		return store.MemberParams{}, false
	}
	return store.MemberParams{
		Name:   sanitizeInput(req.Name),
		Role:   role,
		Leader: sanitizeInput(req.Leader),
	}, true
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	role := core.Role("")
	if v := strings.TrimSpace(r.URL.Query().Get("role")); v != "" {
		parsed, err := core.ParseRole(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		role = parsed
	}
	writeJSON(w, http.StatusOK, query.Members(s.store.Members(), role))
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, ok := req.params(w, r)
	if !ok {
		return
	}
	m, err := s.store.CreateMember(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, ok := req.params(w, r)
	if !ok {
		return
	}
	m, err := s.store.UpdateMember(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMember(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- expenses ---

type expenseRequest struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"` // decimal string, e.g. "12.50"
	Event    string `json:"event"`
	Category string `json:"category"`
	MemberID string `json:"member_id"`
	Date     string `json:"date"` // YYYY-MM-DD
}

func (req expenseRequest) params(w http.ResponseWriter, r *http.Request) (store.ExpenseParams, bool) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return store.ExpenseParams{}, false
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeError(w, r, err)
		return store.ExpenseParams{}, false
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return store.ExpenseParams{}, false
	}
	return store.ExpenseParams{
		Name:     sanitizeInput(req.Name),
		Amount:   core.Money{Cents: cents},
		Event:    sanitizeInput(req.Event),
		Category: category,
		MemberID: strings.TrimSpace(req.MemberID),
		Date:     date,
	}, true
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	var f query.ExpenseFilter
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		category, err := core.ParseCategory(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Category = category
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		month, err := core.ParseMonth(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Month = month
	}
	f.MemberID = strings.TrimSpace(q.Get("member"))
	writeJSON(w, http.StatusOK, query.Expenses(s.store.Expenses(), f))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, ok := req.params(w, r)
	if !ok {
		return
	}
	e, err := s.store.CreateExpense(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, ok := req.params(w, r)
	if !ok {
		return
	}
	e, err := s.store.UpdateExpense(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- attrition ---

type attritionRequest struct {
	MemberID  string `json:"member_id"`
	ExitMonth string `json:"exit_month"` // YYYY-MM
}

func (s *Server) handleListAttrition(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Attrition())
}

func (s *Server) handleCreateAttrition(w http.ResponseWriter, r *http.Request) {
	var req attritionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	month, err := core.ParseMonth(req.ExitMonth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.store.RecordExit(r.Context(), strings.TrimSpace(req.MemberID), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleDeleteAttrition(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveExit(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- query surfaces ---

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, query.Months(s.store.Expenses()))
}

func (s *Server) handleLeaders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, query.Leaders(s.store.Members()))
}

type seriesResponse struct {
	Leader string             `json:"leader,omitempty"`
	Range  query.Range        `json:"range"`
	Points []query.MonthPoint `json:"points"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, ok := query.ParseRange(q.Get("range"))
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid range: must be all, q1, q2, q3 or q4"})
		return
	}
	leader := strings.TrimSpace(q.Get("leader"))

	_, members, expenses, _ := s.store.Snapshot()
	writeJSON(w, http.StatusOK, seriesResponse{
		Leader: leader,
		Range:  rng,
		Points: query.MonthlySeries(expenses, members, leader, rng),
	})
}

// --- import and report ---

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected multipart form with a workbook file"})
		return
	}
	file, header, err := r.FormFile("workbook")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing workbook file field"})
		return
	}
	defer file.Close()

	wb, err := xlsx.Open(file)
	if err != nil {
		slog.WarnContext(r.Context(), "Workbook open failed", "error", err, "filename", header.Filename)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: workbook.ErrImportFailed.Error()})
		return
	}
	defer wb.Close()

	sum, err := s.reconciler.Import(r.Context(), wb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	cfg, members, expenses, attrition := s.store.Snapshot()
	body := report.Build(cfg, members, expenses, attrition)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
