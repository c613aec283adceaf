// Package books provides database operations for the book catalogue.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(id)
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

var ErrBookNotFound = errors.New("book not found")

var sortColumns = map[string]string{
	"id":         "books.id",
	"title":      "books.title",
	"author":     "books.author",
	"isbn":       "books.isbn",
	"available":  "books.available",
	"created_at": "books.created_at",
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a book and attaches the given categories.
func (r *Repository) Create(book *entities.Book, categoryIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		book.Available = true
		if err := tx.Omit("Categories").Create(book).Error; err != nil {
			return err
		}
		return r.replaceCategories(tx, book, categoryIDs)
	})
}

// Update modifies a book's descriptive fields and category set. The
// availability flag is deliberately not touched here: it belongs to the loan
// lifecycle (see SetAvailable for the administrative escape hatch).
func (r *Repository) Update(id uint, title, author, isbn string, categoryIDs []uint) (*entities.Book, error) {
	var book entities.Book

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		updates := map[string]any{
			"title":  title,
			"author": author,
			"isbn":   isbn,
		}
		if err := tx.Model(&book).Updates(updates).Error; err != nil {
			return err
		}

		if categoryIDs != nil {
			if err := r.replaceCategories(tx, &book, categoryIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(id)
}

func (r *Repository) replaceCategories(tx *gorm.DB, book *entities.Book, categoryIDs []uint) error {
	if categoryIDs == nil {
		return nil
	}
	var categories []entities.Category
	if len(categoryIDs) > 0 {
		if err := tx.Find(&categories, categoryIDs).Error; err != nil {
			return err
		}
		if len(categories) != len(categoryIDs) {
			return fmt.Errorf("unknown category in %v", categoryIDs)
		}
	}
	return tx.Model(book).Association("Categories").Replace(categories)
}

// SetCoverPath stores the relative path of an uploaded cover image.
func (r *Repository) SetCoverPath(id uint, path string) error {
	result := r.db.Model(&entities.Book{}).Where("id = ?", id).Update("cover_path", path)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// SetAvailable overrides the availability flag directly. This is an
// administrative escape hatch and not part of the loan lifecycle.
func (r *Repository) SetAvailable(id uint, available bool) error {
	result := r.db.Model(&entities.Book{}).Where("id = ?", id).Update("available", available)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// GetByID retrieves a book with its categories.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Categories").First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// FindByISBN looks a book up by its unique ISBN.
func (r *Repository) FindByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// Delete removes a book. Books with an open loan cannot be deleted.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var openLoans int64
		err := tx.Model(&entities.Loan{}).
			Where("book_id = ? AND return_date IS NULL", id).
			Count(&openLoans).Error
		if err != nil {
			return err
		}
		if openLoans > 0 {
			return fmt.Errorf("book %d has an open loan", id)
		}

		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBookNotFound
		}
		return nil
	})
}

func (r *Repository) filteredQuery(search string, categoryIDs []uint) *gorm.DB {
	q := r.db.Model(&entities.Book{})

	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where(
			"LOWER(books.title) LIKE LOWER(?) OR LOWER(books.author) LIKE LOWER(?) OR LOWER(books.isbn) LIKE LOWER(?)",
			pattern, pattern, pattern,
		)
	}

	// AND semantics: a book matches only if it carries every requested
	// category.
	for _, categoryID := range categoryIDs {
		q = q.Where(
			"EXISTS (SELECT 1 FROM book_categories bc WHERE bc.book_id = books.id AND bc.category_id = ?)",
			categoryID,
		)
	}

	return q
}

// List returns a filtered, sorted page of books plus pagination metadata.
func (r *Repository) List(params database.PageParams, search string, categoryIDs []uint) ([]entities.Book, database.Pagination, error) {
	params = params.Normalize()

	var total int64
	if err := r.filteredQuery(search, categoryIDs).Count(&total).Error; err != nil {
		return nil, database.Pagination{}, err
	}

	books := make([]entities.Book, 0, params.Limit)
	err := r.filteredQuery(search, categoryIDs).
		Preload("Categories").
		Order(params.OrderClause(sortColumns, "books.title ASC")).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&books).Error
	if err != nil {
		return nil, database.Pagination{}, err
	}

	return books, database.NewPagination(params, total), nil
}

// Count returns the total number of books.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// VerifyAvailabilityInvariant reports books whose availability flag disagrees
// with the loan ledger. An empty slice means the flag is a faithful cache
// of "no open loan".
func (r *Repository) VerifyAvailabilityInvariant() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.Book{}).
		Where(`available != NOT EXISTS (
			SELECT 1 FROM loans WHERE loans.book_id = books.id AND loans.return_date IS NULL
		)`).
		Pluck("books.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
