package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KobaKhit/rebelzapp/internal/dto"
	"github.com/KobaKhit/rebelzapp/internal/middleware"
	"github.com/KobaKhit/rebelzapp/internal/models"
	"github.com/KobaKhit/rebelzapp/internal/repository"
	"github.com/KobaKhit/rebelzapp/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// --- Mock RegistrationService ---

type mockRegistrationService struct {
	registerFn   func(ctx context.Context, userID uint, req dto.RegisterRequest) (*models.EventRegistration, error)
	cancelFn     func(ctx context.Context, registrationID uint, actor *models.User) error
	updateFn     func(ctx context.Context, registrationID uint, req dto.UpdateRegistrationRequest) (*models.EventRegistration, error)
	attendanceFn func(ctx context.Context, req dto.RecordAttendanceRequest, recorder *models.User) (*models.AttendanceRecord, error)
	statsFn      func(ctx context.Context, eventID uint) (*dto.EventStatsResponse, error)
	listFn       func(ctx context.Context, filter repository.RegistrationFilter) ([]models.EventRegistration, error)
}

func (m *mockRegistrationService) Register(ctx context.Context, userID uint, req dto.RegisterRequest) (*models.EventRegistration, error) {
	return m.registerFn(ctx, userID, req)
}
func (m *mockRegistrationService) Cancel(ctx context.Context, registrationID uint, actor *models.User) error {
	return m.cancelFn(ctx, registrationID, actor)
}
func (m *mockRegistrationService) AdminUpdate(ctx context.Context, registrationID uint, req dto.UpdateRegistrationRequest) (*models.EventRegistration, error) {
	return m.updateFn(ctx, registrationID, req)
}
func (m *mockRegistrationService) RecordAttendance(ctx context.Context, req dto.RecordAttendanceRequest, recorder *models.User) (*models.AttendanceRecord, error) {
	return m.attendanceFn(ctx, req, recorder)
}
func (m *mockRegistrationService) Stats(ctx context.Context, eventID uint) (*dto.EventStatsResponse, error) {
	return m.statsFn(ctx, eventID)
}
func (m *mockRegistrationService) List(ctx context.Context, filter repository.RegistrationFilter) ([]models.EventRegistration, error) {
	return m.listFn(ctx, filter)
}
func (m *mockRegistrationService) ListByUser(ctx context.Context, userID uint) ([]models.EventRegistration, error) {
	return nil, nil
}
func (m *mockRegistrationService) ListAttendance(ctx context.Context, eventID uint, limit, offset int) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = middleware.NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func testUser(id uint) *models.User {
	return &models.User{ID: id, Email: "user@example.com", FullName: "Test User", IsActive: true}
}

// --- Tests ---

func TestRegister_Handler_Confirmed(t *testing.T) {
	svc := &mockRegistrationService{
		registerFn: func(ctx context.Context, userID uint, req dto.RegisterRequest) (*models.EventRegistration, error) {
			return &models.EventRegistration{
				ID:               1,
				EventID:          req.EventID,
				UserID:           userID,
				Status:           models.StatusConfirmed,
				RegistrationDate: time.Now(),
			}, nil
		},
	}

	c, rec := newTestContext(http.MethodPost, "/registrations", `{"event_id":7}`)
	middleware.SetCurrentUser(c, testUser(3))

	h := NewRegistrationHandler(svc, nil)
	err := h.Register(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.RegistrationResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint(7), resp.EventID)
	assert.Equal(t, uint(3), resp.UserID)
	assert.Equal(t, models.StatusConfirmed, resp.Status)
}

func TestRegister_Handler_Waitlisted(t *testing.T) {
	svc := &mockRegistrationService{
		registerFn: func(ctx context.Context, userID uint, req dto.RegisterRequest) (*models.EventRegistration, error) {
			return &models.EventRegistration{
				ID:               2,
				EventID:          req.EventID,
				UserID:           userID,
				Status:           models.StatusWaitlist,
				RegistrationDate: time.Now(),
			}, nil
		},
	}

	c, rec := newTestContext(http.MethodPost, "/registrations", `{"event_id":7}`)
	middleware.SetCurrentUser(c, testUser(4))

	h := NewRegistrationHandler(svc, nil)
	err := h.Register(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.RegistrationResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusWaitlist, resp.Status)
}

func TestRegister_Handler_AlreadyRegistered(t *testing.T) {
	svc := &mockRegistrationService{
		registerFn: func(ctx context.Context, userID uint, req dto.RegisterRequest) (*models.EventRegistration, error) {
			return nil, service.ErrAlreadyRegistered
		},
	}

	c, _ := newTestContext(http.MethodPost, "/registrations", `{"event_id":7}`)
	middleware.SetCurrentUser(c, testUser(3))

	h := NewRegistrationHandler(svc, nil)
	err := h.Register(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestRegister_Handler_EventNotFound(t *testing.T) {
	svc := &mockRegistrationService{
		registerFn: func(ctx context.Context, userID uint, req dto.RegisterRequest) (*models.EventRegistration, error) {
			return nil, service.ErrEventNotFound
		},
	}

	c, _ := newTestContext(http.MethodPost, "/registrations", `{"event_id":999}`)
	middleware.SetCurrentUser(c, testUser(3))

	h := NewRegistrationHandler(svc, nil)
	err := h.Register(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestRegister_Handler_MissingEventID(t *testing.T) {
	c, _ := newTestContext(http.MethodPost, "/registrations", `{}`)
	middleware.SetCurrentUser(c, testUser(3))

	h := NewRegistrationHandler(&mockRegistrationService{}, nil)
	err := h.Register(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCancel_Handler_Owner(t *testing.T) {
	var gotID uint
	svc := &mockRegistrationService{
		cancelFn: func(ctx context.Context, registrationID uint, actor *models.User) error {
			gotID = registrationID
			return nil
		},
	}

	c, rec := newTestContext(http.MethodDelete, "/registrations/5", "")
	c.SetParamNames("id")
	c.SetParamValues("5")
	middleware.SetCurrentUser(c, testUser(3))

	h := NewRegistrationHandler(svc, nil)
	err := h.Cancel(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uint(5), gotID)
}

func TestCancel_Handler_NotOwner(t *testing.T) {
	svc := &mockRegistrationService{
		cancelFn: func(ctx context.Context, registrationID uint, actor *models.User) error {
			return service.ErrNotRegistrationOwner
		},
	}

	c, _ := newTestContext(http.MethodDelete, "/registrations/5", "")
	c.SetParamNames("id")
	c.SetParamValues("5")
	middleware.SetCurrentUser(c, testUser(9))

	h := NewRegistrationHandler(svc, nil)
	err := h.Cancel(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestCancel_Handler_NotFound(t *testing.T) {
	svc := &mockRegistrationService{
		cancelFn: func(ctx context.Context, registrationID uint, actor *models.User) error {
			return service.ErrRegistrationNotFound
		},
	}

	c, _ := newTestContext(http.MethodDelete, "/registrations/42", "")
	c.SetParamNames("id")
	c.SetParamValues("42")
	middleware.SetCurrentUser(c, testUser(3))

	h := NewRegistrationHandler(svc, nil)
	err := h.Cancel(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestAdminUpdate_Handler_ForcesStatus(t *testing.T) {
	svc := &mockRegistrationService{
		updateFn: func(ctx context.Context, registrationID uint, req dto.UpdateRegistrationRequest) (*models.EventRegistration, error) {
			return &models.EventRegistration{
				ID:      registrationID,
				EventID: 7,
				UserID:  3,
				Status:  models.RegistrationStatus(*req.Status),
			}, nil
		},
	}

	c, rec := newTestContext(http.MethodPatch, "/registrations/5", `{"status":"confirmed"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	h := NewRegistrationHandler(svc, nil)
	err := h.AdminUpdate(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.RegistrationResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusConfirmed, resp.Status)
}

func TestAdminUpdate_Handler_InvalidStatus(t *testing.T) {
	c, _ := newTestContext(http.MethodPatch, "/registrations/5", `{"status":"bogus"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	h := NewRegistrationHandler(&mockRegistrationService{}, nil)
	err := h.AdminUpdate(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestRecordAttendance_Handler_Success(t *testing.T) {
	svc := &mockRegistrationService{
		attendanceFn: func(ctx context.Context, req dto.RecordAttendanceRequest, recorder *models.User) (*models.AttendanceRecord, error) {
			return &models.AttendanceRecord{
				ID:               1,
				RegistrationID:   req.RegistrationID,
				WasPresent:       req.WasPresent,
				RecordedByUserID: &recorder.ID,
			}, nil
		},
	}

	c, rec := newTestContext(http.MethodPost, "/registrations/attendance", `{"registration_id":5,"was_present":true}`)
	middleware.SetCurrentUser(c, testUser(1))

	h := NewRegistrationHandler(svc, nil)
	err := h.RecordAttendance(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.AttendanceResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint(5), resp.RegistrationID)
	assert.True(t, resp.WasPresent)
}

func TestRecordAttendance_Handler_Duplicate(t *testing.T) {
	svc := &mockRegistrationService{
		attendanceFn: func(ctx context.Context, req dto.RecordAttendanceRequest, recorder *models.User) (*models.AttendanceRecord, error) {
			return nil, service.ErrAttendanceRecorded
		},
	}

	c, _ := newTestContext(http.MethodPost, "/registrations/attendance", `{"registration_id":5,"was_present":true}`)
	middleware.SetCurrentUser(c, testUser(1))

	h := NewRegistrationHandler(svc, nil)
	err := h.RecordAttendance(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestStats_Handler_WithRate(t *testing.T) {
	capacity := 20
	rate := 75.0
	svc := &mockRegistrationService{
		statsFn: func(ctx context.Context, eventID uint) (*dto.EventStatsResponse, error) {
			return &dto.EventStatsResponse{
				EventID:                eventID,
				EventTitle:             "Chess Club",
				TotalCapacity:          &capacity,
				TotalRegistrations:     5,
				ConfirmedRegistrations: 4,
				WaitlistRegistrations:  1,
				AttendanceRate:         &rate,
			}, nil
		},
	}

	c, rec := newTestContext(http.MethodGet, "/registrations/stats/event/7", "")
	c.SetParamNames("event_id")
	c.SetParamValues("7")

	h := NewRegistrationHandler(svc, nil)
	err := h.Stats(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.EventStatsResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(4), resp.ConfirmedRegistrations)
	assert.NotNil(t, resp.AttendanceRate)
	assert.Equal(t, 75.0, *resp.AttendanceRate)
}

func TestStats_Handler_NoConfirmedOmitsRate(t *testing.T) {
	svc := &mockRegistrationService{
		statsFn: func(ctx context.Context, eventID uint) (*dto.EventStatsResponse, error) {
			return &dto.EventStatsResponse{EventID: eventID, EventTitle: "Empty Event"}, nil
		},
	}

	c, rec := newTestContext(http.MethodGet, "/registrations/stats/event/7", "")
	c.SetParamNames("event_id")
	c.SetParamValues("7")

	h := NewRegistrationHandler(svc, nil)
	err := h.Stats(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "attendance_rate")
}

func TestList_Handler_PassesFilter(t *testing.T) {
	var got repository.RegistrationFilter
	svc := &mockRegistrationService{
		listFn: func(ctx context.Context, filter repository.RegistrationFilter) ([]models.EventRegistration, error) {
			got = filter
			return []models.EventRegistration{}, nil
		},
	}

	c, rec := newTestContext(http.MethodGet, "/registrations?event_id=7&status=waitlist&limit=10", "")

	h := NewRegistrationHandler(svc, nil)
	err := h.List(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), got.EventID)
	assert.Equal(t, models.StatusWaitlist, got.Status)
	assert.Equal(t, 10, got.Limit)
}
