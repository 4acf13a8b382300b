package repository

import (
	"context"

	"github.com/KobaKhit/rebelzapp/internal/models"
	"gorm.io/gorm"
)

type AttendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	FindByRegistrationID(ctx context.Context, registrationID uint) (*models.AttendanceRecord, error)
	List(ctx context.Context, eventID uint, limit, offset int) ([]models.AttendanceRecord, error)
	CountPresentByEvent(ctx context.Context, eventID uint) (int64, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *attendanceRepository) FindByRegistrationID(ctx context.Context, registrationID uint) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("registration_id = ?", registrationID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepository) List(ctx context.Context, eventID uint, limit, offset int) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	q := r.db.WithContext(ctx).Preload("Registration").Preload("Registration.User")
	if eventID != 0 {
		q = q.Joins("JOIN event_registrations ON event_registrations.id = attendance_records.registration_id").
			Where("event_registrations.event_id = ?", eventID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Order("attendance_records.id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepository) CountPresentByEvent(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Joins("JOIN event_registrations ON event_registrations.id = attendance_records.registration_id").
		Where("event_registrations.event_id = ? AND attendance_records.was_present = ?", eventID, true).
		Count(&count).Error
	return count, err
}
