package http

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/database/loans"
	"github.com/mrlokans/librarium/internal/entities"
)

// LoansController serves the borrow/return lifecycle and loan listings.
type LoansController struct {
	store LoanStore
	now   func() time.Time
}

// NewLoansController creates the loans controller.
func NewLoansController(store LoanStore) *LoansController {
	return &LoansController{
		store: store,
		now:   time.Now,
	}
}

// LoanView is a loan plus its derived status, the shape every listing and
// the CSV export agree on.
type LoanView struct {
	entities.Loan
	Status entities.LoanStatus `json:"status"`
}

func newLoanView(loan entities.Loan, now time.Time) LoanView {
	return LoanView{Loan: loan, Status: loan.Status(now)}
}

type borrowRequest struct {
	BookID   uint `json:"book_id" binding:"required"`
	MemberID uint `json:"member_id" binding:"required"`
}

type returnRequest struct {
	BookID uint `json:"book_id" binding:"required"`
}

// Borrow creates a loan for an available book.
//
//	POST /api/loans/borrow {book_id, member_id}
//	201 Loan / 400 / 404 book or member / 409 unavailable
func (ctrl *LoansController) Borrow(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id and member_id are required")
		return
	}

	loan, err := ctrl.store.BorrowBook(req.BookID, req.MemberID)
	if err != nil {
		switch {
		case errors.Is(err, loans.ErrBookNotFound):
			respondNotFound(c, "book not found")
		case errors.Is(err, loans.ErrMemberNotFound):
			respondNotFound(c, "member not found")
		case errors.Is(err, loans.ErrBookUnavailable):
			respondConflict(c, "book is not available")
		default:
			respondInternalError(c, err, "borrow")
		}
		return
	}

	respondCreated(c, newLoanView(*loan, ctrl.now()))
}

// Return closes the open loan for a book.
//
//	POST /api/loans/return {book_id}
//	200 {message} / 400 / 404 no active loan
func (ctrl *LoansController) Return(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	loan, err := ctrl.store.ReturnBook(req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, loans.ErrNoActiveLoan):
			respondNotFound(c, "no active loan found")
		default:
			respondInternalError(c, err, "return")
		}
		return
	}

	c.JSON(200, SuccessResponse{
		Message: "book returned",
		Data:    newLoanView(*loan, ctrl.now()),
	})
}

// List returns a filtered, paginated page of loans.
//
//	GET /api/loans?page=&limit=&status=&search=&sort=&order=
func (ctrl *LoansController) List(c *gin.Context) {
	params, ok := parsePageParams(c)
	if !ok {
		return
	}

	now := ctrl.now()
	loanRows, pagination, err := ctrl.store.List(params, c.Query("status"), c.Query("search"), now)
	if err != nil {
		if errors.Is(err, loans.ErrInvalidStatus) {
			respondBadRequest(c, "status must be one of active, overdue, returned")
			return
		}
		respondInternalError(c, err, "list loans")
		return
	}

	views := make([]LoanView, 0, len(loanRows))
	for _, loan := range loanRows {
		views = append(views, newLoanView(loan, now))
	}

	c.JSON(200, ListResponse{Data: views, Pagination: pagination})
}

// Get returns a single loan.
//
//	GET /api/loans/:id
func (ctrl *LoansController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := ctrl.store.GetByID(id)
	if err != nil {
		respondNotFound(c, "loan not found")
		return
	}

	c.JSON(200, newLoanView(*loan, ctrl.now()))
}
