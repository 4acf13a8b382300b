package service

import (
	"context"
	"errors"
	"time"

	"github.com/KobaKhit/rebelzapp/internal/dto"
	"github.com/KobaKhit/rebelzapp/internal/models"
	"github.com/KobaKhit/rebelzapp/internal/repository"
	"github.com/KobaKhit/rebelzapp/pkg/rabbitmq"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrAttendanceRecorded   = errors.New("attendance already recorded")
	ErrNotRegistrationOwner = errors.New("can only cancel your own registrations")
)

type RegistrationService interface {
	Register(ctx context.Context, userID uint, req dto.RegisterRequest) (*models.EventRegistration, error)
	Cancel(ctx context.Context, registrationID uint, actor *models.User) error
	AdminUpdate(ctx context.Context, registrationID uint, req dto.UpdateRegistrationRequest) (*models.EventRegistration, error)
	RecordAttendance(ctx context.Context, req dto.RecordAttendanceRequest, recorder *models.User) (*models.AttendanceRecord, error)
	Stats(ctx context.Context, eventID uint) (*dto.EventStatsResponse, error)
	List(ctx context.Context, filter repository.RegistrationFilter) ([]models.EventRegistration, error)
	ListByUser(ctx context.Context, userID uint) ([]models.EventRegistration, error)
	ListAttendance(ctx context.Context, eventID uint, limit, offset int) ([]models.AttendanceRecord, error)
}

type registrationService struct {
	regRepo   repository.RegistrationRepository
	eventRepo repository.EventRepository
	attRepo   repository.AttendanceRepository
	userRepo  repository.UserRepository
	publisher *rabbitmq.Publisher
}

func NewRegistrationService(
	regRepo repository.RegistrationRepository,
	eventRepo repository.EventRepository,
	attRepo repository.AttendanceRepository,
	userRepo repository.UserRepository,
	publisher *rabbitmq.Publisher,
) RegistrationService {
	return &registrationService{
		regRepo:   regRepo,
		eventRepo: eventRepo,
		attRepo:   attRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// Register decides confirmed vs waitlist against the event capacity. The whole
// admission runs in one transaction holding a row lock on the event, so two
// racing registrations for the last seat cannot both count the same
// confirmed total.
func (s *registrationService) Register(ctx context.Context, userID uint, req dto.RegisterRequest) (*models.EventRegistration, error) {
	var result *models.EventRegistration

	err := s.regRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := s.eventRepo.FindByIDForUpdate(ctx, tx, req.EventID)
		if err != nil {
			return ErrEventNotFound
		}

		// Duplicate check ignores status: a registration in any state blocks a
		// second one. Cancellation deletes the row, which re-opens the pair.
		_, err = s.regRepo.FindByEventAndUser(ctx, tx, req.EventID, userID)
		if err == nil {
			return ErrAlreadyRegistered
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		status := models.StatusConfirmed
		if event.Capacity != nil {
			confirmed, err := s.regRepo.CountByStatus(ctx, tx, req.EventID, models.StatusConfirmed)
			if err != nil {
				return err
			}
			if confirmed >= int64(*event.Capacity) {
				status = models.StatusWaitlist
			}
		}

		reg := &models.EventRegistration{
			EventID:             req.EventID,
			UserID:              userID,
			Status:              status,
			RegistrationDate:    time.Now(),
			Notes:               req.Notes,
			EmergencyContact:    req.EmergencyContact,
			DietaryRestrictions: req.DietaryRestrictions,
			SpecialNeeds:        req.SpecialNeeds,
		}
		if err := s.regRepo.Create(ctx, tx, reg); err != nil {
			return err
		}
		result = reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("registration.created", result)
	}

	// reload with user/event for the denormalized response fields
	return s.regRepo.FindByID(ctx, result.ID)
}

// Cancel hard-deletes the registration and its attendance record. Freed
// capacity is claimed by the next registration; the waitlist head is not
// promoted automatically.
func (s *registrationService) Cancel(ctx context.Context, registrationID uint, actor *models.User) error {
	reg, err := s.regRepo.FindByID(ctx, registrationID)
	if err != nil {
		return ErrRegistrationNotFound
	}

	if reg.UserID != actor.ID {
		ok, err := s.userRepo.HasPermission(ctx, actor.ID, models.PermManageEvents)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotRegistrationOwner
		}
	}

	if err := s.regRepo.DeleteWithAttendance(ctx, registrationID); err != nil {
		return err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("registration.cancelled", reg)
	}
	return nil
}

// AdminUpdate applies any subset of fields without re-validating capacity:
// an admin forcing a registration to confirmed can oversubscribe the event.
// The admission invariant only binds Register.
func (s *registrationService) AdminUpdate(ctx context.Context, registrationID uint, req dto.UpdateRegistrationRequest) (*models.EventRegistration, error) {
	reg, err := s.regRepo.FindByID(ctx, registrationID)
	if err != nil {
		return nil, ErrRegistrationNotFound
	}

	if req.Status != nil {
		reg.Status = models.RegistrationStatus(*req.Status)
	}
	if req.Notes != nil {
		reg.Notes = *req.Notes
	}
	if req.EmergencyContact != nil {
		reg.EmergencyContact = *req.EmergencyContact
	}
	if req.DietaryRestrictions != nil {
		reg.DietaryRestrictions = *req.DietaryRestrictions
	}
	if req.SpecialNeeds != nil {
		reg.SpecialNeeds = *req.SpecialNeeds
	}

	if err := s.regRepo.Save(ctx, reg); err != nil {
		return nil, err
	}
	return s.regRepo.FindByID(ctx, registrationID)
}

// RecordAttendance is independent of registration status; only the one-to-one
// constraint is enforced.
func (s *registrationService) RecordAttendance(ctx context.Context, req dto.RecordAttendanceRequest, recorder *models.User) (*models.AttendanceRecord, error) {
	if _, err := s.regRepo.FindByID(ctx, req.RegistrationID); err != nil {
		return nil, ErrRegistrationNotFound
	}

	if _, err := s.attRepo.FindByRegistrationID(ctx, req.RegistrationID); err == nil {
		return nil, ErrAttendanceRecorded
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record := &models.AttendanceRecord{
		RegistrationID:   req.RegistrationID,
		WasPresent:       req.WasPresent,
		CheckInTime:      req.CheckInTime,
		CheckOutTime:     req.CheckOutTime,
		Notes:            req.Notes,
		RecordedByUserID: &recorder.ID,
	}
	if err := s.attRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("attendance.recorded", record)
	}
	return record, nil
}

func (s *registrationService) Stats(ctx context.Context, eventID uint) (*dto.EventStatsResponse, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, ErrEventNotFound
	}

	db := s.regRepo.GetDB()
	counts := map[models.RegistrationStatus]int64{}
	for _, status := range []models.RegistrationStatus{
		models.StatusPending, models.StatusConfirmed, models.StatusWaitlist, models.StatusCancelled,
	} {
		n, err := s.regRepo.CountByStatus(ctx, db, eventID, status)
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}

	stats := &dto.EventStatsResponse{
		EventID:                eventID,
		EventTitle:             event.Title,
		TotalCapacity:          event.Capacity,
		ConfirmedRegistrations: counts[models.StatusConfirmed],
		PendingRegistrations:   counts[models.StatusPending],
		WaitlistRegistrations:  counts[models.StatusWaitlist],
		CancelledRegistrations: counts[models.StatusCancelled],
	}
	for _, n := range counts {
		stats.TotalRegistrations += n
	}

	// attendance rate is undefined with no confirmed registrations
	if stats.ConfirmedRegistrations > 0 {
		attended, err := s.attRepo.CountPresentByEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		rate := float64(attended) / float64(stats.ConfirmedRegistrations) * 100
		stats.AttendanceRate = &rate
	}
	return stats, nil
}

func (s *registrationService) List(ctx context.Context, filter repository.RegistrationFilter) ([]models.EventRegistration, error) {
	return s.regRepo.List(ctx, filter)
}

func (s *registrationService) ListByUser(ctx context.Context, userID uint) ([]models.EventRegistration, error) {
	return s.regRepo.ListByUser(ctx, userID)
}

func (s *registrationService) ListAttendance(ctx context.Context, eventID uint, limit, offset int) ([]models.AttendanceRecord, error) {
	return s.attRepo.List(ctx, eventID, limit, offset)
}
