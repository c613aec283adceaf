package importers

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarium/internal/database/books"
	"github.com/mrlokans/librarium/internal/database/categories"
	"github.com/mrlokans/librarium/internal/entities"
)

func TestParseBooksCSV(t *testing.T) {
	input := `title,author,isbn,categories
Dune,Frank Herbert,9780441013593,Fiction;Science Fiction
The Hobbit,J.R.R. Tolkien,9780547928227,
,No Title,123,
Emma,Jane Austen,9780141439587,Fiction
`

	rows, lineErrors, err := ParseBooksCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "Dune", rows[0].Title)
	assert.Equal(t, []string{"Fiction", "Science Fiction"}, rows[0].Categories)
	assert.Empty(t, rows[1].Categories)

	// The row without a title is reported, not fatal
	require.Len(t, lineErrors, 1)
	assert.Contains(t, lineErrors[0], "Line 4")
}

func TestParseBooksCSV_MissingHeader(t *testing.T) {
	_, _, err := ParseBooksCSV(strings.NewReader("title,author\nDune,Frank Herbert\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "isbn")
}

func setupImporter(t *testing.T) (*BooksCSVImporter, *gorm.DB, func()) {
	t.Helper()

	dbPath := "./test_import_" + t.Name() + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Category{}, &entities.Book{}))

	importer := NewBooksCSVImporter(books.NewRepository(db), categories.NewRepository(db))

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return importer, db, cleanup
}

func TestImport(t *testing.T) {
	importer, db, cleanup := setupImporter(t)
	defer cleanup()

	rows := []BookCSVRow{
		{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", Categories: []string{"Fiction", "Science Fiction"}},
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", ISBN: "9780547928227"},
	}

	result := importer.Import(rows)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Errors)

	var stored entities.Book
	require.NoError(t, db.Preload("Categories").Where("isbn = ?", "9780441013593").First(&stored).Error)
	assert.Equal(t, "Dune", stored.Title)
	assert.True(t, stored.Available)
	assert.Len(t, stored.Categories, 2)
}

func TestImport_SkipsExistingISBN(t *testing.T) {
	importer, db, cleanup := setupImporter(t)
	defer cleanup()

	rows := []BookCSVRow{
		{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"},
	}

	result := importer.Import(rows)
	require.Equal(t, 1, result.Created)

	// Re-running the same import changes nothing
	result = importer.Import(rows)
	assert.Zero(t, result.Created)
	assert.Equal(t, 1, result.Skipped)

	var count int64
	require.NoError(t, db.Model(&entities.Book{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestImport_ReusesCategories(t *testing.T) {
	importer, db, cleanup := setupImporter(t)
	defer cleanup()

	rows := []BookCSVRow{
		{Title: "Dune", Author: "Frank Herbert", ISBN: "1", Categories: []string{"Fiction"}},
		{Title: "Emma", Author: "Jane Austen", ISBN: "2", Categories: []string{"Fiction"}},
	}

	result := importer.Import(rows)
	require.Equal(t, 2, result.Created)

	var count int64
	require.NoError(t, db.Model(&entities.Category{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
