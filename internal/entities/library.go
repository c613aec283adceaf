package entities

import (
	"time"
)

// LoanStatus is derived from a loan's dates, never stored.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusReturned LoanStatus = "returned"
)

type Book struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"index;size:512" json:"title"`
	Author    string     `gorm:"index;size:256" json:"author"`
	ISBN      string     `gorm:"uniqueIndex;size:20;default:null" json:"isbn,omitempty"`
	Available bool       `gorm:"default:true" json:"available"`
	CoverPath string     `gorm:"size:1024" json:"cover_path,omitempty"`
	Categories []Category `gorm:"many2many:book_categories;" json:"categories,omitempty"`
	Loans     []Loan     `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index;size:256" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:255" json:"email"`
	Phone     string    `gorm:"size:32" json:"phone,omitempty"`
	Loans     []Loan    `gorm:"foreignKey:MemberID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Loan is append-mostly: created by a borrow, mutated exactly once by a
// return (which sets ReturnDate), never deleted. ReturnDate == nil means the
// loan is open.
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"index" json:"book_id"`
	MemberID   uint       `gorm:"index" json:"member_id"`
	Book       Book       `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Member     Member     `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `gorm:"index" json:"due_date"`
	ReturnDate *time.Time `gorm:"index" json:"return_date"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Status derives the loan state from its dates. The due-date comparison uses
// the full timestamp; every consumer (listing, CSV export, overdue scanner)
// goes through this function or the matching SQL predicate so they agree.
func (l *Loan) Status(now time.Time) LoanStatus {
	if l.ReturnDate != nil {
		return LoanStatusReturned
	}
	if l.DueDate.Before(now) {
		return LoanStatusOverdue
	}
	return LoanStatusActive
}

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100" json:"name"`
	Books     []Book    `gorm:"many2many:book_categories;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
