package reservation_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nekogravitycat/office-booking-backend/internal/daterange"
	"github.com/nekogravitycat/office-booking-backend/internal/lock"
	"github.com/nekogravitycat/office-booking-backend/internal/office"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
	"github.com/nekogravitycat/office-booking-backend/internal/store/memory"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// today is 2021-02-20 for every fixture.
var today = clock.Fixed(time.Date(2021, 2, 20, 9, 0, 0, 0, time.UTC))

type fixture struct {
	offices  office.Service
	svc      reservation.Service
	host     *user.User
	visitors []*user.User
	office   *office.Office
}

func newFixture(t *testing.T, locker lock.Locker, visitors int) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	users, officeRepo, reservationRepo := store.Repos()

	f := &fixture{}
	f.host = &user.User{Email: "host@example.com", IsActive: true}
	require.NoError(t, users.Create(ctx, f.host))
	for i := 0; i < visitors; i++ {
		v := &user.User{Email: fmt.Sprintf("visitor%d@example.com", i), IsActive: true}
		require.NoError(t, users.Create(ctx, v))
		f.visitors = append(f.visitors, v)
	}

	f.offices = office.NewService(officeRepo, locker)
	o, err := f.offices.Create(ctx, office.CreateRequest{
		OwnerID:         f.host.ID,
		Title:           "Office near the station",
		Description:     "Quiet desks",
		AddressLine1:    "1 Main St",
		Latitude:        39.74,
		Longitude:       -104.99,
		PricePerDay:     1000,
		MonthlyDiscount: 10,
	})
	require.NoError(t, err)
	o, err = f.offices.Review(ctx, o.ID, office.StatusApproved)
	require.NoError(t, err)
	f.office = o

	f.svc = reservation.NewService(reservationRepo, f.offices, locker, today)
	return f
}

func date(s string) daterange.Date {
	d, err := daterange.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (f *fixture) book(userID, start, end string) (*reservation.Reservation, error) {
	return f.svc.Book(context.Background(), reservation.BookRequest{
		OfficeID:  f.office.ID,
		UserID:    userID,
		StartDate: date(start),
		EndDate:   date(end),
	})
}

func TestBook_Success(t *testing.T) {
	f := newFixture(t, lock.NewMemoryLocker(time.Second), 1)

	r, err := f.book(f.visitors[0].ID, "2021-03-01", "2021-04-09")
	require.NoError(t, err)

	// 40 days at 1000 with a 10% monthly discount.
	assert.Equal(t, int64(36000), r.Price)
	assert.Equal(t, reservation.StatusActive, r.Status)
	assert.Equal(t, f.office.ID, r.OfficeID)
	assert.NotZero(t, r.ID)
}

func TestBook_PriceIsFixedAtCreation(t *testing.T) {
	f := newFixture(t, lock.NewMemoryLocker(time.Second), 1)
	ctx := context.Background()

	r, err := f.book(f.visitors[0].ID, "2021-03-01", "2021-03-02")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), r.Price)

	price := int64(5000)
	_, err = f.offices.Update(ctx, f.office.ID, f.host.ID, office.UpdateRequest{PricePerDay: &price})
	require.NoError(t, err)

	stored, err := f.svc.GetByID(ctx, r.ID, f.visitors[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), stored.Price)
}

func TestBook_InvalidDateRange(t *testing.T) {
	f := newFixture(t, lock.NewMemoryLocker(time.Second), 1)
	visitor := f.visitors[0].ID

	tests := []struct {
		name       string
		start, end string
	}{
		{"end before start", "2021-03-05", "2021-03-01"},
		{"end equals start", "2021-03-01", "2021-03-01"},
		{"start today", "2021-02-20", "2021-02-25"},
		{"start in the past", "2021-01-01", "2021-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.book(visitor, tt.start, tt.end)
			assert.ErrorIs(t, err, reservation.ErrInvalidDateRange)
		})
	}

	_, err := f.svc.Book(context.Background(), reservation.BookRequest{OfficeID: f.office.ID, UserID: visitor})
	assert.ErrorIs(t, err, reservation.ErrInvalidDateRange)
}

func TestBook_OfficeNotFound(t *testing.T) {
	f := newFixture(t, lock.NewMemoryLocker(time.Second), 1)

	_, err := f.svc.Book(context.Background(), reservation.BookRequest{
		OfficeID:  f.office.ID + 100,
		UserID:    f.visitors[0].ID,
		StartDate: date("2021-03-01"),
		EndDate:   date("2021-03-05"),
	})
	assert.ErrorIs(t, err, reservation.ErrOfficeNotFound)
}

func TestBook_RemovedOfficeIsNotFound(t *testing.T) {
	f := newFixture(t, lock.NewMemoryLocker(time.Second), 1)

	require.NoError(t, f.offices.Delete(context.Background(), f.office.ID, f.host.ID))

	_, err := f.book(f.visitors[0].ID, "2021-03-01", "2021-03-05")
	assert.ErrorIs(t, err, reservation.ErrOfficeNotFound)
}

func TestBook_SelfBooking(t *testing.T) {
	f := newFixture(t, lock.NewMemoryLocker(time.Second), 0)

	_, err := f.book(f.host.ID, "2021-03-01", "2021-03-05")
	assert.ErrorIs(t, err, reservation.ErrSelfBooking)

	// Checked before conflicts and stay length.
	_, err = f.book(f.host.ID, "2021-03-01", "2021-03-02")
	assert.ErrorIs(t, err, reservation.ErrSelfBooking)
}

func TestBook_OfficeNotBookable(t *testing.T) {
	ctx := context.Background()
	hidden := true
	lat := 40.0

	tests := []struct {
		name   string
		mutate func(f *fixture)
	}{
		{"hidden", func(f *fixture) {
			_, err := f.offices.Update(ctx, f.office.ID, f.host.ID, office.UpdateRequest{Hidden: &hidden})
			require.NoError(t, err)
		}},
		{"pending after location edit", func(f *fixture) {
			_, err := f.offices.Update(ctx, f.office.ID, f.host.ID, office.UpdateRequest{Latitude: &lat})
			require.NoError(t, err)
		}},
		{"rejected", func(f *fixture) {
			_, err := f.offices.Review(ctx, f.office.ID, office.StatusRejected)
			require.NoError(t, err)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, lock.NewMemoryLocker(time.Second), 1)
			tt.mutate(f)

			_, err := f.book(f.visitors[0].ID, "2021-03-01", "2021-03-05")
			assert.ErrorIs(t, err, reservation.ErrOfficeNotBookable)
		})
	}
}

func TestBook_SharedBoundaryDayConflicts(t *testing.T) {
	f := newFixture(t, lock.NewMemoryLocker(time.Second), 2)

	_, err := f.book(f.visitors[0].ID, "2021-03-01", "2021-03-15")
	require.NoError(t, err)

	_, err = f.book(f.visitors[1].ID, "2021-03-15", "2021-03-20")
	assert.ErrorIs(t, err, reservation.ErrDateConflict)

	_, err = f.book(f.visitors[1].ID, "2021-02-25", "2021-03-01")
	assert.ErrorIs(t, err, reservation.ErrDateConflict)

	_, err = f.book(f.visitors[1].ID, "2021-03-16", "2021-03-20")
	assert.NoError(t, err)
}

func TestBook_CancelledReservationFreesDates(t *testing.T) {
	f := newFixture(t, lock.NewMemoryLocker(time.Second), 2)
	ctx := context.Background()

	r, err := f.book(f.visitors[0].ID, "2021-03-01", "2021-03-15")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, r.ID, f.visitors[1].ID)
	assert.ErrorIs(t, err, reservation.ErrPermissionDenied)

	cancelled, err := f.svc.Cancel(ctx, r.ID, f.visitors[0].ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusCancelled, cancelled.Status)
	assert.Equal(t, r.Price, cancelled.Price)

	_, err = f.svc.Cancel(ctx, r.ID, f.visitors[0].ID)
	assert.ErrorIs(t, err, reservation.ErrNotActive)

	_, err = f.book(f.visitors[1].ID, "2021-03-10", "2021-03-20")
	assert.NoError(t, err)
}

func TestBook_OfficeWithReservationsCannotBeDeleted(t *testing.T) {
	f := newFixture(t, lock.NewMemoryLocker(time.Second), 1)
	ctx := context.Background()

	r, err := f.book(f.visitors[0].ID, "2021-03-01", "2021-03-05")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, r.ID, f.visitors[0].ID)
	require.NoError(t, err)

	err = f.offices.Delete(ctx, f.office.ID, f.host.ID)
	assert.ErrorIs(t, err, office.ErrHasReservations)
}

func TestList_ForVisitorAndHost(t *testing.T) {
	f := newFixture(t, lock.NewMemoryLocker(time.Second), 2)
	ctx := context.Background()

	_, err := f.book(f.visitors[0].ID, "2021-03-01", "2021-03-05")
	require.NoError(t, err)
	_, err = f.book(f.visitors[1].ID, "2021-04-01", "2021-04-05")
	require.NoError(t, err)

	mine, total, err := f.svc.List(ctx, reservation.Filter{UserID: f.visitors[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, f.visitors[0].ID, mine[0].UserID)

	hosted, total, err := f.svc.ListForHost(ctx, reservation.Filter{HostID: f.host.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, hosted, 2)

	within := daterange.Range{Start: date("2021-03-05"), End: date("2021-03-31")}
	_, total, err = f.svc.ListForHost(ctx, reservation.Filter{HostID: f.host.ID, Within: &within})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

// stressBook fires n concurrent overlapping bookings at one office and checks that exactly one wins.
func stressBook(t *testing.T, locker lock.Locker, n int) {
	f := newFixture(t, locker, n)

	var succeeded, conflicted, busy atomic.Int32
	var g errgroup.Group
	for i := 0; i < n; i++ {
		visitor := f.visitors[i].ID
		// Every range contains 2021-03-10.
		start := date("2021-03-01").AddDays(i % 10)
		end := start.AddDays(10)
		g.Go(func() error {
			_, err := f.svc.Book(context.Background(), reservation.BookRequest{
				OfficeID:  f.office.ID,
				UserID:    visitor,
				StartDate: start,
				EndDate:   end,
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, reservation.ErrDateConflict):
				conflicted.Add(1)
			case errors.Is(err, reservation.ErrBusy):
				busy.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(n-1), conflicted.Load()+busy.Load())

	active, total, err := f.svc.ListForHost(context.Background(), reservation.Filter{
		HostID: f.host.ID,
		Status: reservation.StatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, active, 1)
}

func TestBook_ConcurrentOverlappingRequests(t *testing.T) {
	t.Run("memory lock", func(t *testing.T) {
		stressBook(t, lock.NewMemoryLocker(5*time.Second), 50)
	})

	t.Run("redis lock", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })

		locker := lock.NewRedisLocker(rdb, lock.RedisOptions{
			TTL:          10 * time.Second,
			Wait:         5 * time.Second,
			PollInterval: 2 * time.Millisecond,
		})
		stressBook(t, locker, 20)
	})
}

func TestBook_DifferentOfficesDoNotContend(t *testing.T) {
	locker := lock.NewMemoryLocker(time.Second)
	f := newFixture(t, locker, 1)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, office.LockKey(f.office.ID))
	require.NoError(t, err)
	defer release()

	other, err := f.offices.Create(ctx, office.CreateRequest{
		OwnerID: f.host.ID, Title: "Other", Description: "d", AddressLine1: "a",
		Latitude: 1, Longitude: 1, PricePerDay: 100,
	})
	require.NoError(t, err)
	_, err = f.offices.Review(ctx, other.ID, office.StatusApproved)
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, reservation.BookRequest{
		OfficeID:  other.ID,
		UserID:    f.visitors[0].ID,
		StartDate: date("2021-03-01"),
		EndDate:   date("2021-03-05"),
	})
	assert.NoError(t, err)
}

func TestBook_HeldLockIsBusy(t *testing.T) {
	locker := lock.NewMemoryLocker(20 * time.Millisecond)
	f := newFixture(t, locker, 1)

	release, err := locker.Acquire(context.Background(), office.LockKey(f.office.ID))
	require.NoError(t, err)
	defer release()

	_, err = f.book(f.visitors[0].ID, "2021-03-01", "2021-03-05")
	assert.ErrorIs(t, err, reservation.ErrBusy)
}
