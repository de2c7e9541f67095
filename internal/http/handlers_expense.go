package http

import (
	"errors"
	"html/template"
	"net/http"

	"weekspend/internal/log"
	"weekspend/internal/store"
)

// handleCreateExpense accepts a form post from the page or a JSON body.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	structured := log.NewStructuredLogger(logger)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Unreadable expense body", log.FieldError, err, log.FieldOperation, log.OpParse)
		s.writeError(w, r, http.StatusBadRequest, "Malformed request body")
		return
	}

	input, err := ParseExpenseInput(p, s.today())
	if err != nil {
		logger.InfoContext(ctx, "Rejected expense input", log.FieldError, err, log.FieldOperation, log.OpValidate)
		s.writeError(w, r, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	saved, err := s.expenses.CreateExpense(ctx, input)
	if err != nil {
		if isValidationError(err) {
			s.writeError(w, r, http.StatusUnprocessableEntity, validationMessage(err))
			return
		}
		structured.LogError(ctx, "Failed to save expense", err, log.OpCreate,
			log.NewFields().WithComponent(log.ComponentExpense))
		s.writeError(w, r, http.StatusInternalServerError, "Could not save the expense")
		return
	}

	s.metrics.created.Add(1)
	structured.LogExpenseCreated(ctx, saved.ID, saved.Date.String(), saved.Amount.StringFixed(2), saved.Category.String())

	if p.IsJSON() || wantsJSON(r) {
		s.writeJSON(w, r, http.StatusCreated, saved)
		return
	}

	amount := s.reports.Engine().Formatter().FormatCurrency(saved.Amount)
	NewHTMXResponse().
		TriggerExpenseCreated(saved.ID, saved.Date.String()).
		TriggerFormReset().
		TriggerWeekRefresh().
		TriggerSuccessNotification("Expense added").
		BodyHTML(`<div class="success">Added ` + template.HTMLEscapeString(amount) +
			` for ` + template.HTMLEscapeString(saved.Category.String()) +
			` on ` + template.HTMLEscapeString(saved.Date.String()) + `</div>`).
		Write(w)
}

// handleDeleteExpense serves both DELETE /expenses/{id} and the form
// fallback POST /expenses/{id}/delete.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		s.writeError(w, r, http.StatusBadRequest, "Missing expense id")
		return
	}

	if err := s.expenses.DeleteExpense(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, http.StatusNotFound, "Expense not found")
			return
		}
		log.NewStructuredLogger(logger).LogError(ctx, "Failed to delete expense", err, log.OpDelete,
			log.NewFields().WithComponent(log.ComponentExpense))
		s.writeError(w, r, http.StatusInternalServerError, "Could not delete the expense")
		return
	}

	s.metrics.deleted.Add(1)
	logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id, log.FieldOperation, log.OpDelete)

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	// An empty 200 lets HTMX swap the row away.
	NewHTMXResponse().
		TriggerExpenseDeleted(id).
		TriggerWeekRefresh().
		TriggerSuccessNotification("Expense deleted").
		Write(w)
}
