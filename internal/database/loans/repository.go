// Package loans owns the borrow/return lifecycle and every read over the
// loan ledger.
//
// The central invariant is "at most one open loan per book": a book's
// denormalized Available flag must be true exactly when no loan row for it
// has a NULL return_date. Both borrow and return run as a single GORM
// transaction so the availability check and the availability write can never
// be split across transactions.
//
// # Usage
//
//	repo := loans.NewRepository(db, 14)
//	loan, err := repo.BorrowBook(bookID, memberID)
package loans

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrBookUnavailable = errors.New("book is not available")
	ErrNoActiveLoan    = errors.New("no active loan found")
	ErrInvalidStatus   = errors.New("invalid loan status filter")
)

// defaultPeriodDays is used when the repository is constructed without an
// explicit loan period.
const defaultPeriodDays = 14

// allowed ORDER BY targets for loan listings. Keys are the API-facing sort
// names; values are column expressions safe to interpolate.
var sortColumns = map[string]string{
	"id":          "loans.id",
	"borrow_date": "loans.borrow_date",
	"due_date":    "loans.due_date",
	"return_date": "loans.return_date",
	"book_title":  "books.title",
	"member_name": "members.name",
}

// Repository handles all loan database operations.
type Repository struct {
	db         *gorm.DB
	periodDays int
}

// NewRepository creates a new loans repository. periodDays controls how far
// in the future due dates land; values below 1 fall back to the default.
func NewRepository(db *gorm.DB, periodDays int) *Repository {
	if periodDays < 1 {
		periodDays = defaultPeriodDays
	}
	return &Repository{db: db, periodDays: periodDays}
}

// BorrowBook creates an open loan for the book and flips its availability
// flag, atomically. The availability read, the loan insert, and the guarded
// availability UPDATE all happen inside one transaction: of two racing
// borrows for the same book, at most one sees RowsAffected == 1 on the
// guarded UPDATE, and the loser rolls back with ErrBookUnavailable.
func (r *Repository) BorrowBook(bookID, memberID uint) (*entities.Loan, error) {
	var loan entities.Loan

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var member entities.Member
		if err := tx.Select("id").First(&member, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return fmt.Errorf("failed to load member: %w", err)
		}

		var book entities.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("failed to load book: %w", err)
		}

		if !book.Available {
			return ErrBookUnavailable
		}

		now := time.Now()
		loan = entities.Loan{
			BookID:     bookID,
			MemberID:   memberID,
			BorrowDate: now,
			DueDate:    now.AddDate(0, 0, r.periodDays),
		}
		if err := tx.Create(&loan).Error; err != nil {
			return fmt.Errorf("failed to create loan: %w", err)
		}

		// Guarded flip: the WHERE available = true clause makes this the
		// effective lock. A concurrent borrow that already flipped the flag
		// leaves RowsAffected at 0 and this transaction rolls back.
		result := tx.Model(&entities.Book{}).
			Where("id = ? AND available = ?", bookID, true).
			Update("available", false)
		if result.Error != nil {
			return fmt.Errorf("failed to update availability: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrBookUnavailable
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := r.db.Preload("Book").Preload("Member").First(&loan, loan.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload loan: %w", err)
	}
	return &loan, nil
}

// ReturnBook closes the most recently borrowed open loan for the book and
// flips availability back, atomically. Returning a book with no open loan
// fails with ErrNoActiveLoan rather than silently succeeding, so a double
// return never double-credits availability.
func (r *Repository) ReturnBook(bookID uint) (*entities.Loan, error) {
	var loan entities.Loan

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var open []entities.Loan
		err := tx.Where("book_id = ? AND return_date IS NULL", bookID).
			Order("borrow_date DESC").
			Find(&open).Error
		if err != nil {
			return fmt.Errorf("failed to load open loans: %w", err)
		}
		if len(open) == 0 {
			return ErrNoActiveLoan
		}
		if len(open) > 1 {
			// Should be impossible given the borrow-side invariant; close the
			// most recent one and leave a trace instead of crashing.
			log.Printf("WARNING: book %d has %d open loans, closing the most recent", bookID, len(open))
		}

		loan = open[0]
		now := time.Now()
		if err := tx.Model(&loan).Update("return_date", now).Error; err != nil {
			return fmt.Errorf("failed to close loan: %w", err)
		}

		result := tx.Model(&entities.Book{}).
			Where("id = ?", loan.BookID).
			Update("available", true)
		if result.Error != nil {
			return fmt.Errorf("failed to update availability: %w", result.Error)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := r.db.Preload("Book").Preload("Member").First(&loan, loan.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload loan: %w", err)
	}
	return &loan, nil
}

// GetByID retrieves a single loan with its book and member.
func (r *Repository) GetByID(id uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.Preload("Book").Preload("Member").First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// applyFilters adds the search and status predicates shared by List,
// FindFiltered, and the CSV export, so the count query, the data query, and
// every other consumer agree on what "overdue" means.
func (r *Repository) applyFilters(q *gorm.DB, status, search string, now time.Time) (*gorm.DB, error) {
	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where("LOWER(books.title) LIKE LOWER(?) OR LOWER(members.name) LIKE LOWER(?)", pattern, pattern)
	}

	switch entities.LoanStatus(status) {
	case "":
	case entities.LoanStatusActive:
		q = q.Where("loans.return_date IS NULL AND loans.due_date >= ?", now)
	case entities.LoanStatusOverdue:
		q = q.Where("loans.return_date IS NULL AND loans.due_date < ?", now)
	case entities.LoanStatusReturned:
		q = q.Where("loans.return_date IS NOT NULL")
	default:
		return nil, ErrInvalidStatus
	}

	return q, nil
}

func (r *Repository) filteredQuery(status, search string, now time.Time) (*gorm.DB, error) {
	q := r.db.Model(&entities.Loan{}).
		Joins("JOIN books ON books.id = loans.book_id").
		Joins("JOIN members ON members.id = loans.member_id")
	return r.applyFilters(q, status, search, now)
}

// List returns a filtered, sorted page of loans plus pagination metadata.
// The count and data queries run over the same predicate. Out-of-range pages
// return an empty slice with a valid pagination block.
func (r *Repository) List(params database.PageParams, status, search string, now time.Time) ([]entities.Loan, database.Pagination, error) {
	params = params.Normalize()

	countQuery, err := r.filteredQuery(status, search, now)
	if err != nil {
		return nil, database.Pagination{}, err
	}
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, database.Pagination{}, err
	}

	dataQuery, err := r.filteredQuery(status, search, now)
	if err != nil {
		return nil, database.Pagination{}, err
	}

	loans := make([]entities.Loan, 0, params.Limit)
	err = dataQuery.
		Preload("Book").
		Preload("Member").
		Order(params.OrderClause(sortColumns, "loans.borrow_date DESC")).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&loans).Error
	if err != nil {
		return nil, database.Pagination{}, err
	}

	return loans, database.NewPagination(params, total), nil
}

// FindFiltered returns all loans matching the filters without pagination,
// ordered by borrow date. Used by the CSV export.
func (r *Repository) FindFiltered(status, search string, now time.Time) ([]entities.Loan, error) {
	q, err := r.filteredQuery(status, search, now)
	if err != nil {
		return nil, err
	}

	var loans []entities.Loan
	err = q.Preload("Book").Preload("Member").
		Order("loans.borrow_date DESC").
		Find(&loans).Error
	return loans, err
}

// FindOverdue returns all open loans past their due date with book and
// member context, for the overdue scanner. Read-only.
func (r *Repository) FindOverdue(now time.Time) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.Preload("Book").Preload("Member").
		Where("return_date IS NULL AND due_date < ?", now).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

// CountOpen returns the number of open loans.
func (r *Repository) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).Where("return_date IS NULL").Count(&count).Error
	return count, err
}

// CountOverdue returns the number of open loans past their due date.
func (r *Repository) CountOverdue(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).
		Where("return_date IS NULL AND due_date < ?", now).
		Count(&count).Error
	return count, err
}
