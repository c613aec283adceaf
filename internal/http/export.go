package http

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/database/loans"
	"github.com/mrlokans/librarium/internal/exporters"
)

// ExportController serves CSV downloads of the loan ledger.
type ExportController struct {
	store    LoanStore
	exporter *exporters.LoanCSVExporter
}

// NewExportController creates the export controller.
func NewExportController(store LoanStore) *ExportController {
	return &ExportController{
		store:    store,
		exporter: exporters.NewLoanCSVExporter(),
	}
}

// LoansCSV streams the filtered loan ledger as a CSV attachment. The same
// status/search filters as GET /api/loans apply.
//
//	GET /api/loans/export?status=&search=
func (ctrl *ExportController) LoansCSV(c *gin.Context) {
	now := time.Now()
	loanRows, err := ctrl.store.FindFiltered(c.Query("status"), c.Query("search"), now)
	if err != nil {
		if errors.Is(err, loans.ErrInvalidStatus) {
			respondBadRequest(c, "status must be one of active, overdue, returned")
			return
		}
		respondInternalError(c, err, "export loans")
		return
	}

	filename := fmt.Sprintf("loans-%s.csv", now.Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := ctrl.exporter.Export(c.Writer, loanRows); err != nil {
		// Headers are already sent; all that is left is to log.
		log.Printf("Internal error (write loans csv): %v", err)
	}
}
