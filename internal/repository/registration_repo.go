package repository

import (
	"context"

	"github.com/KobaKhit/rebelzapp/internal/models"
	"gorm.io/gorm"
)

// RegistrationFilter narrows List; zero values mean "no filter".
type RegistrationFilter struct {
	EventID uint
	UserID  uint
	Status  models.RegistrationStatus
	Limit   int
	Offset  int
}

type RegistrationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reg *models.EventRegistration) error
	FindByID(ctx context.Context, id uint) (*models.EventRegistration, error)
	FindByEventAndUser(ctx context.Context, tx *gorm.DB, eventID, userID uint) (*models.EventRegistration, error)
	CountByStatus(ctx context.Context, tx *gorm.DB, eventID uint, status models.RegistrationStatus) (int64, error)
	List(ctx context.Context, filter RegistrationFilter) ([]models.EventRegistration, error)
	ListByUser(ctx context.Context, userID uint) ([]models.EventRegistration, error)
	Save(ctx context.Context, reg *models.EventRegistration) error
	DeleteWithAttendance(ctx context.Context, id uint) error
	GetDB() *gorm.DB
}

type registrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *registrationRepository) Create(ctx context.Context, tx *gorm.DB, reg *models.EventRegistration) error {
	return tx.WithContext(ctx).Create(reg).Error
}

func (r *registrationRepository) FindByID(ctx context.Context, id uint) (*models.EventRegistration, error) {
	var reg models.EventRegistration
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Event").
		First(&reg, id).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) FindByEventAndUser(ctx context.Context, tx *gorm.DB, eventID, userID uint) (*models.EventRegistration, error) {
	var reg models.EventRegistration
	err := tx.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) CountByStatus(ctx context.Context, tx *gorm.DB, eventID uint, status models.RegistrationStatus) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.EventRegistration{}).
		Where("event_id = ? AND status = ?", eventID, status).
		Count(&count).Error
	return count, err
}

func (r *registrationRepository) List(ctx context.Context, filter RegistrationFilter) ([]models.EventRegistration, error) {
	var regs []models.EventRegistration
	q := r.db.WithContext(ctx).Preload("User").Preload("Event")
	if filter.EventID != 0 {
		q = q.Where("event_id = ?", filter.EventID)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Order("id ASC").Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *registrationRepository) ListByUser(ctx context.Context, userID uint) ([]models.EventRegistration, error) {
	var regs []models.EventRegistration
	if err := r.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("registration_date DESC").
		Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *registrationRepository) Save(ctx context.Context, reg *models.EventRegistration) error {
	return r.db.WithContext(ctx).Save(reg).Error
}

// DeleteWithAttendance removes the registration and its attendance record (if
// any) in one transaction. Cancellation is a hard delete, not a status flip.
func (r *registrationRepository) DeleteWithAttendance(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("registration_id = ?", id).Delete(&models.AttendanceRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.EventRegistration{}, id).Error
	})
}
