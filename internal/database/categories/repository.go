// Package categories provides database operations for book categories.
package categories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/entities"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrNameTaken        = errors.New("a category with this name already exists")
)

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a category with a unique name.
func (r *Repository) Create(name string) (*entities.Category, error) {
	var existing entities.Category
	err := r.db.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, ErrNameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing category: %w", err)
	}

	category := &entities.Category{Name: name}
	if err := r.db.Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// GetOrCreateByName returns the category with the given name, creating it
// if needed. Used by the CSV importer where category names arrive free-form.
func (r *Repository) GetOrCreateByName(name string) (*entities.Category, error) {
	var category entities.Category
	err := r.db.Where("name = ?", name).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}

	category = entities.Category{Name: name}
	if err := r.db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// GetAll returns all categories ordered by name.
func (r *Repository) GetAll() ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

// GetByID retrieves a category.
func (r *Repository) GetByID(id uint) (*entities.Category, error) {
	var category entities.Category
	err := r.db.First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Delete removes a category and its book associations.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var category entities.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		if err := tx.Model(&category).Association("Books").Clear(); err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
}
