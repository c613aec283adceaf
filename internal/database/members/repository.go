// Package members provides database operations for library members.
package members

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrEmailTaken     = errors.New("a member with this email already exists")
)

var sortColumns = map[string]string{
	"id":         "members.id",
	"name":       "members.name",
	"email":      "members.email",
	"created_at": "members.created_at",
}

// Repository handles all member database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new members repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a member. Emails are unique across members.
func (r *Repository) Create(member *entities.Member) error {
	var existing entities.Member
	err := r.db.Where("email = ?", member.Email).First(&existing).Error
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check existing member: %w", err)
	}
	return r.db.Create(member).Error
}

// Update modifies a member's contact details.
func (r *Repository) Update(id uint, name, email, phone string) (*entities.Member, error) {
	var member entities.Member
	if err := r.db.First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	updates := map[string]any{
		"name":  name,
		"email": email,
		"phone": phone,
	}
	if err := r.db.Model(&member).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByID retrieves a member.
func (r *Repository) GetByID(id uint) (*entities.Member, error) {
	var member entities.Member
	err := r.db.First(&member, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// Delete removes a member. Members with an open loan cannot be deleted.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var openLoans int64
		err := tx.Model(&entities.Loan{}).
			Where("member_id = ? AND return_date IS NULL", id).
			Count(&openLoans).Error
		if err != nil {
			return err
		}
		if openLoans > 0 {
			return fmt.Errorf("member %d has an open loan", id)
		}

		result := tx.Delete(&entities.Member{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrMemberNotFound
		}
		return nil
	})
}

func (r *Repository) filteredQuery(search string) *gorm.DB {
	q := r.db.Model(&entities.Member{})
	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where(
			"LOWER(members.name) LIKE LOWER(?) OR LOWER(members.email) LIKE LOWER(?) OR LOWER(members.phone) LIKE LOWER(?)",
			pattern, pattern, pattern,
		)
	}
	return q
}

// List returns a filtered, sorted page of members plus pagination metadata.
func (r *Repository) List(params database.PageParams, search string) ([]entities.Member, database.Pagination, error) {
	params = params.Normalize()

	var total int64
	if err := r.filteredQuery(search).Count(&total).Error; err != nil {
		return nil, database.Pagination{}, err
	}

	members := make([]entities.Member, 0, params.Limit)
	err := r.filteredQuery(search).
		Order(params.OrderClause(sortColumns, "members.name ASC")).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&members).Error
	if err != nil {
		return nil, database.Pagination{}, err
	}

	return members, database.NewPagination(params, total), nil
}

// Count returns the total number of members.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Member{}).Count(&count).Error
	return count, err
}
