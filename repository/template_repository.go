package repository

import (
	"context"
	"errors"

	"mailcast/models"

	"gorm.io/gorm"
)

type TemplateRepository struct {
	DB *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{DB: db}
}

func (r *TemplateRepository) Create(ctx context.Context, tmpl *models.Template) error {
	return r.DB.WithContext(ctx).Create(tmpl).Error
}

func (r *TemplateRepository) List(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&templates).Error
	return templates, err
}

// GetByID returns nil, nil when the template does not exist
func (r *TemplateRepository) GetByID(ctx context.Context, id uint) (*models.Template, error) {
	var tmpl models.Template
	if err := r.DB.WithContext(ctx).First(&tmpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tmpl, nil
}

func (r *TemplateRepository) Save(ctx context.Context, tmpl *models.Template) error {
	return r.DB.WithContext(ctx).Save(tmpl).Error
}

// Delete soft deletes a template. Campaigns still pointing at it stall until
// it is restored.
func (r *TemplateRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Delete(&models.Template{}, id)
	return res.RowsAffected > 0, res.Error
}

func (r *TemplateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Template{}).Count(&count).Error
	return count, err
}
