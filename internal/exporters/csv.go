// Package exporters writes library data to external formats.
package exporters

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/mrlokans/librarium/internal/entities"
)

var loanCSVHeader = []string{
	"loan_id", "book_title", "book_isbn", "member_name", "member_email",
	"borrow_date", "due_date", "return_date", "status",
}

// LoanCSVExporter streams loans as CSV rows. The status column goes through
// entities.Loan.Status, the same derivation the API listing uses, so the two
// can never disagree.
type LoanCSVExporter struct {
	now func() time.Time
}

// NewLoanCSVExporter creates a CSV exporter for loans.
func NewLoanCSVExporter() *LoanCSVExporter {
	return &LoanCSVExporter{now: time.Now}
}

// Export writes a header plus one row per loan. Loans must be loaded with
// their Book and Member.
func (e *LoanCSVExporter) Export(w io.Writer, loans []entities.Loan) error {
	writer := csv.NewWriter(w)
	now := e.now()

	if err := writer.Write(loanCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, loan := range loans {
		returnDate := ""
		if loan.ReturnDate != nil {
			returnDate = loan.ReturnDate.Format(time.RFC3339)
		}

		row := []string{
			fmt.Sprintf("%d", loan.ID),
			loan.Book.Title,
			loan.Book.ISBN,
			loan.Member.Name,
			loan.Member.Email,
			loan.BorrowDate.Format(time.RFC3339),
			loan.DueDate.Format(time.RFC3339),
			returnDate,
			string(loan.Status(now)),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for loan %d: %w", loan.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
