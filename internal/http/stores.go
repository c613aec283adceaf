// Store interfaces consumed by the HTTP controllers. The repository packages
// under internal/database implement them; tests substitute fakes where that
// is lighter than a real database.
package http

import (
	"time"

	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

// LoanStore is the loan lifecycle engine plus the loan query layer.
type LoanStore interface {
	BorrowBook(bookID, memberID uint) (*entities.Loan, error)
	ReturnBook(bookID uint) (*entities.Loan, error)
	GetByID(id uint) (*entities.Loan, error)
	List(params database.PageParams, status, search string, now time.Time) ([]entities.Loan, database.Pagination, error)
	FindFiltered(status, search string, now time.Time) ([]entities.Loan, error)
	CountOpen() (int64, error)
	CountOverdue(now time.Time) (int64, error)
}

// BookStore covers catalogue CRUD and listing.
type BookStore interface {
	Create(book *entities.Book, categoryIDs []uint) error
	Update(id uint, title, author, isbn string, categoryIDs []uint) (*entities.Book, error)
	GetByID(id uint) (*entities.Book, error)
	Delete(id uint) error
	List(params database.PageParams, search string, categoryIDs []uint) ([]entities.Book, database.Pagination, error)
	SetCoverPath(id uint, path string) error
	Count() (int64, error)
}

// MemberStore covers member CRUD and listing.
type MemberStore interface {
	Create(member *entities.Member) error
	Update(id uint, name, email, phone string) (*entities.Member, error)
	GetByID(id uint) (*entities.Member, error)
	Delete(id uint) error
	List(params database.PageParams, search string) ([]entities.Member, database.Pagination, error)
	Count() (int64, error)
}

// CategoryStore covers category management.
type CategoryStore interface {
	Create(name string) (*entities.Category, error)
	GetAll() ([]entities.Category, error)
	Delete(id uint) error
}
