//go:build integration

package integration

import (
	"sync"
	"testing"

	"github.com/KobaKhit/rebelzapp/internal/dto"
	"github.com/KobaKhit/rebelzapp/internal/models"
	"github.com/KobaKhit/rebelzapp/internal/repository"
	"github.com/KobaKhit/rebelzapp/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistrationService() service.RegistrationService {
	return service.NewRegistrationService(
		repository.NewRegistrationRepository(testDB),
		repository.NewEventRepository(testDB),
		repository.NewAttendanceRepository(testDB),
		repository.NewUserRepository(testDB),
		nil,
	)
}

// Sequential fill: with capacity C, the first C registrations confirm and the
// rest waitlist.
func TestRegistration_SequentialFill(t *testing.T) {
	cleanTables()
	event := createTestEvent(t, "Algebra I", intPtr(3))
	svc := newRegistrationService()

	for i := 0; i < 3; i++ {
		user := createTestUser(t)
		reg, err := svc.Register(t.Context(), user.ID, dto.RegisterRequest{EventID: event.ID})
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, reg.Status)
	}

	overflow := createTestUser(t)
	reg, err := svc.Register(t.Context(), overflow.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaitlist, reg.Status)
}

// Concurrent admission: capacity+1 users race; exactly capacity confirm.
func TestRegistration_ConcurrentAdmission(t *testing.T) {
	cleanTables()
	capacity := 10
	event := createTestEvent(t, "Sold Out Clinic", intPtr(capacity))
	svc := newRegistrationService()

	totalUsers := capacity + 1
	users := make([]*models.User, totalUsers)
	for i := range users {
		users[i] = createTestUser(t)
	}

	var wg sync.WaitGroup
	results := make(chan models.RegistrationStatus, totalUsers)

	wg.Add(totalUsers)
	for i := 0; i < totalUsers; i++ {
		go func(user *models.User) {
			defer wg.Done()
			reg, err := svc.Register(t.Context(), user.ID, dto.RegisterRequest{EventID: event.ID})
			if err == nil {
				results <- reg.Status
			}
		}(users[i])
	}
	wg.Wait()
	close(results)

	var confirmed, waitlisted int
	for status := range results {
		switch status {
		case models.StatusConfirmed:
			confirmed++
		case models.StatusWaitlist:
			waitlisted++
		}
	}

	assert.Equal(t, capacity, confirmed, "confirmed must equal capacity")
	assert.Equal(t, 1, waitlisted, "the loser of the race must be waitlisted")

	var dbConfirmed int64
	testDB.Model(&models.EventRegistration{}).
		Where("event_id = ? AND status = ?", event.ID, models.StatusConfirmed).
		Count(&dbConfirmed)
	assert.Equal(t, int64(capacity), dbConfirmed)
}

func TestRegistration_UnlimitedCapacity(t *testing.T) {
	cleanTables()
	event := createTestEvent(t, "Open House", nil)
	svc := newRegistrationService()

	for i := 0; i < 20; i++ {
		user := createTestUser(t)
		reg, err := svc.Register(t.Context(), user.ID, dto.RegisterRequest{EventID: event.ID})
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, reg.Status)
	}
}

// Duplicate check ignores status: a waitlisted registration still blocks a
// second attempt by the same user.
func TestRegistration_DuplicateAnyStatus(t *testing.T) {
	cleanTables()
	event := createTestEvent(t, "Tiny Class", intPtr(1))
	svc := newRegistrationService()

	first := createTestUser(t)
	_, err := svc.Register(t.Context(), first.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)

	second := createTestUser(t)
	reg, err := svc.Register(t.Context(), second.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)
	require.Equal(t, models.StatusWaitlist, reg.Status)

	_, err = svc.Register(t.Context(), second.ID, dto.RegisterRequest{EventID: event.ID})
	assert.ErrorIs(t, err, service.ErrAlreadyRegistered)
}

func TestRegistration_ConcurrentSameUser(t *testing.T) {
	cleanTables()
	event := createTestEvent(t, "Double Tap", intPtr(50))
	svc := newRegistrationService()
	user := createTestUser(t)

	attempts := 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Register(t.Context(), user.ID, dto.RegisterRequest{EventID: event.ID}); err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successCount, "only one concurrent registration should succeed for the same user")
}

// Cancellation frees a seat but does not promote the waitlist: the freed seat
// goes to whoever registers next, even the user who just cancelled.
func TestRegistration_CancelDoesNotPromote(t *testing.T) {
	cleanTables()
	event := createTestEvent(t, "Two Seats", intPtr(2))
	svc := newRegistrationService()

	alice := createTestUser(t)
	bob := createTestUser(t)
	carol := createTestUser(t)

	aliceReg, err := svc.Register(t.Context(), alice.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)
	_, err = svc.Register(t.Context(), bob.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)

	carolReg, err := svc.Register(t.Context(), carol.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)
	require.Equal(t, models.StatusWaitlist, carolReg.Status)

	require.NoError(t, svc.Cancel(t.Context(), aliceReg.ID, alice))

	// alice re-registers and reclaims the freed seat
	aliceAgain, err := svc.Register(t.Context(), alice.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, aliceAgain.Status)

	// carol is still waitlisted
	var carolAfter models.EventRegistration
	require.NoError(t, testDB.First(&carolAfter, carolReg.ID).Error)
	assert.Equal(t, models.StatusWaitlist, carolAfter.Status)
}

// Cancellation removes the row, so the same user can register again.
func TestRegistration_ReRegisterAfterCancel(t *testing.T) {
	cleanTables()
	event := createTestEvent(t, "Revolving Door", intPtr(5))
	svc := newRegistrationService()
	user := createTestUser(t)

	reg, err := svc.Register(t.Context(), user.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(t.Context(), reg.ID, user))

	again, err := svc.Register(t.Context(), user.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, again.Status)
}

func TestRegistration_CancelByNonOwnerRejected(t *testing.T) {
	cleanTables()
	event := createTestEvent(t, "Private Affair", intPtr(5))
	svc := newRegistrationService()

	owner := createTestUser(t)
	stranger := createTestUser(t)

	reg, err := svc.Register(t.Context(), owner.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)

	err = svc.Cancel(t.Context(), reg.ID, stranger)
	assert.ErrorIs(t, err, service.ErrNotRegistrationOwner)
}

func TestAttendance_OnePerRegistration(t *testing.T) {
	cleanTables()
	event := createTestEvent(t, "Roll Call", intPtr(5))
	svc := newRegistrationService()

	user := createTestUser(t)
	recorder := createTestUser(t)

	reg, err := svc.Register(t.Context(), user.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)

	record, err := svc.RecordAttendance(t.Context(), dto.RecordAttendanceRequest{
		RegistrationID: reg.ID,
		WasPresent:     true,
	}, recorder)
	require.NoError(t, err)
	assert.True(t, record.WasPresent)
	assert.Equal(t, recorder.ID, *record.RecordedByUserID)

	_, err = svc.RecordAttendance(t.Context(), dto.RecordAttendanceRequest{
		RegistrationID: reg.ID,
		WasPresent:     false,
	}, recorder)
	assert.ErrorIs(t, err, service.ErrAttendanceRecorded)
}

// Cancelling a registration removes its attendance record with it.
func TestCancel_RemovesAttendance(t *testing.T) {
	cleanTables()
	event := createTestEvent(t, "Clean Sweep", intPtr(5))
	svc := newRegistrationService()

	user := createTestUser(t)
	reg, err := svc.Register(t.Context(), user.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)

	_, err = svc.RecordAttendance(t.Context(), dto.RecordAttendanceRequest{
		RegistrationID: reg.ID,
		WasPresent:     true,
	}, user)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(t.Context(), reg.ID, user))

	var count int64
	testDB.Model(&models.AttendanceRecord{}).Where("registration_id = ?", reg.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestStats_CountsAndRate(t *testing.T) {
	cleanTables()
	event := createTestEvent(t, "Stat Night", intPtr(2))
	svc := newRegistrationService()

	first := createTestUser(t)
	second := createTestUser(t)
	third := createTestUser(t)

	firstReg, err := svc.Register(t.Context(), first.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)
	_, err = svc.Register(t.Context(), second.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)
	_, err = svc.Register(t.Context(), third.ID, dto.RegisterRequest{EventID: event.ID})
	require.NoError(t, err)

	_, err = svc.RecordAttendance(t.Context(), dto.RecordAttendanceRequest{
		RegistrationID: firstReg.ID,
		WasPresent:     true,
	}, first)
	require.NoError(t, err)

	stats, err := svc.Stats(t.Context(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalRegistrations)
	assert.Equal(t, int64(2), stats.ConfirmedRegistrations)
	assert.Equal(t, int64(1), stats.WaitlistRegistrations)
	require.NotNil(t, stats.AttendanceRate)
	assert.InDelta(t, 50.0, *stats.AttendanceRate, 0.01)
}

func TestStats_NoConfirmedMeansNoRate(t *testing.T) {
	cleanTables()
	event := createTestEvent(t, "Ghost Town", intPtr(2))
	svc := newRegistrationService()

	stats, err := svc.Stats(t.Context(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalRegistrations)
	assert.Nil(t, stats.AttendanceRate)
}
