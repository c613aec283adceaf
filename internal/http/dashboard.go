package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DashboardController serves the aggregate counters the SPA landing page
// renders.
type DashboardController struct {
	books   BookStore
	members MemberStore
	loans   LoanStore
}

// NewDashboardController creates the dashboard controller.
func NewDashboardController(books BookStore, members MemberStore, loans LoanStore) *DashboardController {
	return &DashboardController{
		books:   books,
		members: members,
		loans:   loans,
	}
}

// Stats returns catalogue and lending totals.
//
//	GET /api/dashboard/stats
func (ctrl *DashboardController) Stats(c *gin.Context) {
	totalBooks, err := ctrl.books.Count()
	if err != nil {
		respondInternalError(c, err, "dashboard books")
		return
	}
	totalMembers, err := ctrl.members.Count()
	if err != nil {
		respondInternalError(c, err, "dashboard members")
		return
	}
	openLoans, err := ctrl.loans.CountOpen()
	if err != nil {
		respondInternalError(c, err, "dashboard loans")
		return
	}
	overdueLoans, err := ctrl.loans.CountOverdue(time.Now())
	if err != nil {
		respondInternalError(c, err, "dashboard overdue")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_books":   totalBooks,
		"total_members": totalMembers,
		"active_loans":  openLoans - overdueLoans,
		"overdue_loans": overdueLoans,
		"open_loans":    openLoans,
	})
}
