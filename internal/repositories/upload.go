package repositories

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"alfredoptarigan/resume-parser/internal/models"
)

type UploadRepository interface {
	Create(upload *models.ResumeUpload) error
	MarkCompleted(id string, objectKey, resumeURL string) error
	MarkFailed(id string, errorMsg string) error
	FindByClerkID(clerkID string, limit int) ([]models.ResumeUpload, error)
}

type uploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(upload *models.ResumeUpload) error {
	if err := r.db.Create(upload).Error; err != nil {
		return fmt.Errorf("failed to create upload record: %w", err)
	}
	return nil
}

func (r *uploadRepository) MarkCompleted(id string, objectKey, resumeURL string) error {
	return r.update(id, map[string]interface{}{
		"status":     models.UploadCompleted,
		"object_key": objectKey,
		"resume_url": resumeURL,
		"updated_at": time.Now(),
	})
}

func (r *uploadRepository) MarkFailed(id string, errorMsg string) error {
	return r.update(id, map[string]interface{}{
		"status":        models.UploadFailed,
		"error_message": errorMsg,
		"updated_at":    time.Now(),
	})
}

func (r *uploadRepository) FindByClerkID(clerkID string, limit int) ([]models.ResumeUpload, error) {
	uploads := []models.ResumeUpload{}
	query := r.db.Where("clerk_id = ?", clerkID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&uploads).Error; err != nil {
		return nil, fmt.Errorf("failed to find uploads for %s: %w", clerkID, err)
	}

	return uploads, nil
}

func (r *uploadRepository) update(id string, updates map[string]interface{}) error {
	result := r.db.Model(&models.ResumeUpload{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update upload record: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("upload record %s not found", id)
	}

	return nil
}
