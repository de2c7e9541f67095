package store

import (
	"context"
	"errors"

	"weekspend/internal/core"
)

// ErrNotFound is returned when an expense id does not exist.
var ErrNotFound = errors.New("expense not found")

// Ports for outbound adapters.
type (
	// ExpenseReader returns the full expense history, oldest first.
	ExpenseReader interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	// ExpenseWriter persists a validated expense and returns it with its
	// assigned ID.
	ExpenseWriter interface {
		AddExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	}

	ExpenseRemover interface {
		RemoveExpense(ctx context.Context, id string) error
	}

	// Versioner exposes a counter that grows on every mutation. Report
	// memoization keys on it.
	Versioner interface {
		Version(ctx context.Context) (int64, error)
	}

	Store interface {
		ExpenseReader
		ExpenseWriter
		ExpenseRemover
		Versioner
	}
)
