package books

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_books_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Category{}, &entities.Book{}, &entities.Member{}, &entities.Loan{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func createCategory(t *testing.T, db *gorm.DB, name string) *entities.Category {
	category := &entities.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

func TestCreate(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	fiction := createCategory(t, db, "Fiction")
	scifi := createCategory(t, db, "Science Fiction")

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"}
	err := repo.Create(book, []uint{fiction.ID, scifi.ID})
	require.NoError(t, err)
	assert.NotZero(t, book.ID)

	stored, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", stored.Title)
	assert.True(t, stored.Available, "new books start available")
	assert.Len(t, stored.Categories, 2)
}

func TestCreate_UnknownCategory(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"}
	err := repo.Create(book, []uint{9999})
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	fiction := createCategory(t, db, "Fiction")
	history := createCategory(t, db, "History")

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"}
	require.NoError(t, repo.Create(book, []uint{fiction.ID}))

	updated, err := repo.Update(book.ID, "Dune Messiah", "Frank Herbert", "9780441172696", []uint{history.ID})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Title)
	require.Len(t, updated.Categories, 1)
	assert.Equal(t, "History", updated.Categories[0].Name)
}

func TestUpdate_KeepsAvailability(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"}
	require.NoError(t, repo.Create(book, nil))
	require.NoError(t, db.Model(book).Update("available", false).Error)

	updated, err := repo.Update(book.ID, "Dune", "F. Herbert", "9780441013593", nil)
	require.NoError(t, err)
	assert.False(t, updated.Available, "descriptive updates must not revive availability")
}

func TestUpdate_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Update(9999, "x", "y", "z", nil)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestFindByISBN(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"}
	require.NoError(t, repo.Create(book, nil))

	found, err := repo.FindByISBN("9780441013593")
	require.NoError(t, err)
	assert.Equal(t, book.ID, found.ID)

	_, err = repo.FindByISBN("missing")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestDelete(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"}
	require.NoError(t, repo.Create(book, nil))

	require.NoError(t, repo.Delete(book.ID))

	_, err := repo.GetByID(book.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)

	assert.ErrorIs(t, repo.Delete(book.ID), ErrBookNotFound)
}

func TestDelete_BlockedByOpenLoan(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"}
	require.NoError(t, repo.Create(book, nil))

	member := &entities.Member{Name: "alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(member).Error)

	loan := &entities.Loan{
		BookID:     book.ID,
		MemberID:   member.ID,
		BorrowDate: time.Now(),
		DueDate:    time.Now().AddDate(0, 0, 14),
	}
	require.NoError(t, db.Create(loan).Error)

	err := repo.Delete(book.ID)
	assert.Error(t, err)

	// Still there
	_, err = repo.GetByID(book.ID)
	assert.NoError(t, err)
}

func TestList_SearchAndCategories(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	fiction := createCategory(t, db, "Fiction")
	scifi := createCategory(t, db, "Science Fiction")

	dune := &entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"}
	require.NoError(t, repo.Create(dune, []uint{fiction.ID, scifi.ID}))

	hobbit := &entities.Book{Title: "The Hobbit", Author: "J.R.R. Tolkien", ISBN: "9780547928227"}
	require.NoError(t, repo.Create(hobbit, []uint{fiction.ID}))

	params := database.PageParams{Page: 1, Limit: 20}

	// Case-insensitive search over title/author/isbn
	books, _, err := repo.List(params, "herbert", nil)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	// Single category matches both
	books, _, err = repo.List(params, "", []uint{fiction.ID})
	require.NoError(t, err)
	assert.Len(t, books, 2)

	// Multiple categories require all of them
	books, _, err = repo.List(params, "", []uint{fiction.ID, scifi.ID})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestVerifyAvailabilityInvariant(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	good := &entities.Book{Title: "Good", Author: "A", ISBN: "1"}
	require.NoError(t, repo.Create(good, nil))

	bad := &entities.Book{Title: "Bad", Author: "B", ISBN: "2"}
	require.NoError(t, repo.Create(bad, nil))

	member := &entities.Member{Name: "alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(member).Error)

	// Open loan while the flag still says available
	loan := &entities.Loan{
		BookID:     bad.ID,
		MemberID:   member.ID,
		BorrowDate: time.Now(),
		DueDate:    time.Now().AddDate(0, 0, 14),
	}
	require.NoError(t, db.Create(loan).Error)

	ids, err := repo.VerifyAvailabilityInvariant()
	require.NoError(t, err)
	assert.Equal(t, []uint{bad.ID}, ids)
}
