package repository

import (
	"context"
	"errors"
	"strings"

	"mailcast/models"

	"gorm.io/gorm"
)

type ListRepository struct {
	DB *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{DB: db}
}

// Create stores a list with its contacts and fills in the list counters
func (r *ListRepository) Create(ctx context.Context, list *models.EmailList) error {
	list.TotalCount = len(list.Contacts)
	list.ValidCount = 0
	for _, contact := range list.Contacts {
		if contact.IsValid {
			list.ValidCount++
		}
	}
	list.InvalidCount = list.TotalCount - list.ValidCount

	return r.DB.WithContext(ctx).Session(&gorm.Session{CreateBatchSize: 500}).Create(list).Error
}

func (r *ListRepository) List(ctx context.Context) ([]models.EmailList, error) {
	var lists []models.EmailList
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&lists).Error
	return lists, err
}

// GetByID returns nil, nil when the list does not exist. Contacts are only
// loaded when withContacts is set.
func (r *ListRepository) GetByID(ctx context.Context, id uint, withContacts bool) (*models.EmailList, error) {
	db := r.DB.WithContext(ctx)
	if withContacts {
		db = db.Preload("Contacts", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
	}

	var list models.EmailList
	if err := db.First(&list, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &list, nil
}

// Delete removes a list and its contacts
func (r *ListRepository) Delete(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", id).Delete(&models.ListContact{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.EmailList{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// Unsubscribe flags every contact of the list with the given address. Sends
// already created for running campaigns are not affected.
func (r *ListRepository) Unsubscribe(ctx context.Context, listID uint, email string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.ListContact{}).
		Where("list_id = ? AND LOWER(email) = ?", listID, strings.ToLower(strings.TrimSpace(email))).
		Update("is_unsubscribed", true)
	return res.RowsAffected, res.Error
}

// Totals sums the contact counters of every list
func (r *ListRepository) Totals(ctx context.Context) (lists int64, contacts int64, valid int64, err error) {
	var row struct {
		Lists    int64
		Contacts int64
		Valid    int64
	}
	err = r.DB.WithContext(ctx).Model(&models.EmailList{}).
		Select("COUNT(*) AS lists, COALESCE(SUM(total_count), 0) AS contacts, COALESCE(SUM(valid_count), 0) AS valid").
		Scan(&row).Error
	return row.Lists, row.Contacts, row.Valid, err
}
