package sheets

import (
	"context"
	"strings"

	"budgetshop/internal/core"
)

// Row is one exported expense line. The export is append-only: an
// updated expense is appended again at its bumped version, history is
// never rewritten.
type Row struct {
	Date        core.Date
	Description string
	Amount      core.Money
	Category    string
	Note        string
}

// RowFor flattens an expense and its resolved category name into a row.
func RowFor(e core.Expense, categoryName string) Row {
	return Row{
		Date:        e.Date,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    categoryName,
		Note:        e.Note,
	}
}

func (r Row) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Description) == "" {
		return core.ErrEmptyDescription
	}
	return r.Amount.Validate()
}

// ExpenseWriter is the outbound port for spreadsheet exports.
type ExpenseWriter interface {
	Append(ctx context.Context, r Row) (rowRef string, err error)
}
