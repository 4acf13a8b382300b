package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/KobaKhit/rebelzapp/internal/dto"
	"github.com/KobaKhit/rebelzapp/internal/eventtypes"
	"github.com/KobaKhit/rebelzapp/internal/models"
	"github.com/KobaKhit/rebelzapp/internal/repository"
	"github.com/KobaKhit/rebelzapp/pkg/rabbitmq"
	"gorm.io/datatypes"
)

var (
	ErrInvalidEventType  = errors.New("unknown event type")
	ErrInvalidEventData  = errors.New("event data does not match type schema")
	ErrInvalidTimeWindow = errors.New("end_time must be after start_time")
)

type EventService interface {
	CreateEvent(ctx context.Context, creator *models.User, req dto.CreateEventRequest) (*models.Event, error)
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	ListEvents(ctx context.Context, eventType string) ([]models.Event, error)
	UpdateEvent(ctx context.Context, id uint, req dto.UpdateEventRequest) (*models.Event, error)
	DeleteEvent(ctx context.Context, id uint) error
	Types() []string
}

type eventService struct {
	repo      repository.EventRepository
	types     *eventtypes.Registry
	publisher *rabbitmq.Publisher
}

func NewEventService(repo repository.EventRepository, types *eventtypes.Registry, publisher *rabbitmq.Publisher) EventService {
	return &eventService{repo: repo, types: types, publisher: publisher}
}

func (s *eventService) CreateEvent(ctx context.Context, creator *models.User, req dto.CreateEventRequest) (*models.Event, error) {
	if !s.types.Known(req.Type) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEventType, req.Type)
	}
	if err := s.types.ValidatePayload(req.Type, req.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEventData, err)
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeWindow
	}

	event := &models.Event{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Data:        datatypes.JSON(req.Data),
		Capacity:    req.Capacity,
		IsPublished: req.IsPublished,
	}
	if creator != nil {
		event.CreatedByUserID = &creator.ID
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("event.created", event)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, eventType string) ([]models.Event, error) {
	return s.repo.FindAll(ctx, eventType)
}

func (s *eventService) UpdateEvent(ctx context.Context, id uint, req dto.UpdateEventRequest) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrEventNotFound
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if !event.EndTime.After(event.StartTime) {
		return nil, ErrInvalidTimeWindow
	}
	if req.Data != nil {
		if err := s.types.ValidatePayload(event.Type, req.Data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEventData, err)
		}
		event.Data = datatypes.JSON(req.Data)
	}
	if req.Capacity != nil {
		event.Capacity = req.Capacity
	}
	if req.IsPublished != nil {
		event.IsPublished = *req.IsPublished
	}

	if err := s.repo.Save(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return ErrEventNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *eventService) Types() []string {
	return s.types.Types()
}
