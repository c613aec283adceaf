package categories

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarium/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_categories_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Category{}, &entities.Book{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func TestCreate(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	category, err := repo.Create("Fiction")
	require.NoError(t, err)
	assert.NotZero(t, category.ID)

	_, err = repo.Create("Fiction")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestGetOrCreateByName(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	first, err := repo.GetOrCreateByName("Fantasy")
	require.NoError(t, err)

	second, err := repo.GetOrCreateByName("Fantasy")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetAll(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	for _, name := range []string{"Science", "Fiction", "History"} {
		_, err := repo.Create(name)
		require.NoError(t, err)
	}

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Ordered by name
	assert.Equal(t, "Fiction", all[0].Name)
	assert.Equal(t, "History", all[1].Name)
	assert.Equal(t, "Science", all[2].Name)
}

func TestDelete(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	category, err := repo.Create("Fiction")
	require.NoError(t, err)

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "1"}
	require.NoError(t, db.Create(book).Error)
	require.NoError(t, db.Model(book).Association("Categories").Append(category))

	require.NoError(t, repo.Delete(category.ID))

	_, err = repo.GetByID(category.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	// The book survives without the category
	var stored entities.Book
	require.NoError(t, db.Preload("Categories").First(&stored, book.ID).Error)
	assert.Empty(t, stored.Categories)

	assert.ErrorIs(t, repo.Delete(category.ID), ErrCategoryNotFound)
}
