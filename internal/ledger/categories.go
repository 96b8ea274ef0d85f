package ledger

import (
	"context"
	"errors"
	"strings"

	"coinkeeper/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CategoryStore owns the set of user-defined spending categories.
type CategoryStore struct {
	db *gorm.DB
}

// NewCategoryStore creates a category store backed by db.
func NewCategoryStore(db *gorm.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// Create adds a category for the user. Names are trimmed and must be
// non-empty; duplicates are allowed.
func (s *CategoryStore) Create(ctx context.Context, userID uint, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("Category name is required")
	}
	category := domain.Category{UserID: userID, Name: name}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, storageErr(err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"category_id": category.ID,
		"name":        category.Name,
	}).Info("Category created")
	return &category, nil
}

// List returns the user's categories, newest first.
func (s *CategoryStore) List(ctx context.Context, userID uint) ([]domain.Category, error) {
	var categories []domain.Category
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&categories).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return categories, nil
}

// Rename changes a category's display name under the same validation rules as
// Create. A category id that does not resolve for this user is ErrNotFound.
func (s *CategoryStore) Rename(ctx context.Context, userID, categoryID uint, newName string) (*domain.Category, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, invalid("Category name is required")
	}
	var category domain.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND user_id = ?", categoryID, userID).
			First(&category).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storageErr(err)
		}
		res := tx.Model(&category).Update("name", newName)
		if res.Error != nil {
			return storageErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	category.Name = newName
	return &category, nil
}

// Remove deletes a category. The delete is RESTRICT: while any transaction
// still references the category it fails with ErrCategoryInUse.
func (s *CategoryStore) Remove(ctx context.Context, userID, categoryID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category domain.Category
		err := tx.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storageErr(err)
		}
		var refs int64
		err = tx.Model(&domain.Transaction{}).
			Where("category_id = ?", categoryID).
			Count(&refs).Error
		if err != nil {
			return storageErr(err)
		}
		if refs > 0 {
			return ErrCategoryInUse
		}
		if err := tx.Delete(&category).Error; err != nil {
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"category_id": categoryID,
	}).Info("Category deleted")
	return nil
}
