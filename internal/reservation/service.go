package reservation

import (
	"context"
	"errors"
	"log"

	"github.com/nekogravitycat/office-booking-backend/internal/daterange"
	"github.com/nekogravitycat/office-booking-backend/internal/lock"
	"github.com/nekogravitycat/office-booking-backend/internal/office"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/office-booking-backend/internal/pricing"
)

// BookRequest asks for officeID to be reserved by userID over [StartDate, EndDate].
type BookRequest struct {
	OfficeID  int64
	UserID    string
	StartDate daterange.Date
	EndDate   daterange.Date
}

// OfficeFinder is the part of the office service the engine reads.
type OfficeFinder interface {
	GetByID(ctx context.Context, id int64) (*office.Office, error)
}

type Service interface {
	Book(ctx context.Context, req BookRequest) (*Reservation, error)
	GetByID(ctx context.Context, id int64, actorID string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)
	ListForHost(ctx context.Context, filter Filter) ([]*Reservation, int, error)
	Cancel(ctx context.Context, id int64, actorID string) (*Reservation, error)
}

type service struct {
	repo    Repository
	offices OfficeFinder
	locker  lock.Locker
	clock   clock.Clock
}

func NewService(repo Repository, offices OfficeFinder, locker lock.Locker, clk clock.Clock) Service {
	return &service{
		repo:    repo,
		offices: offices,
		locker:  locker,
		clock:   clk,
	}
}

// Book grants a reservation when the office is bookable and the dates are free.
// Steps after the cheap precondition checks run under the office's lock, so that
// for a given office the conflict scan and the insert are linearized across all workers.
func (s *service) Book(ctx context.Context, req BookRequest) (*Reservation, error) {
	// 1. Validate Date Range
	today := daterange.FromTime(s.clock.Now())
	if req.StartDate.IsZero() || req.EndDate.IsZero() ||
		!req.EndDate.After(req.StartDate) || !req.StartDate.After(today) {
		return nil, ErrInvalidDateRange
	}

	// 2-4. Office exists, is not the requester's own, and accepts bookings
	if _, err := s.bookableOffice(ctx, req.OfficeID, req.UserID); err != nil {
		return nil, err
	}

	var created *Reservation
	err := lock.With(ctx, s.locker, office.LockKey(req.OfficeID), func() error {
		// The office may have been removed, hidden or edited while we waited.
		o, err := s.bookableOffice(ctx, req.OfficeID, req.UserID)
		if err != nil {
			return err
		}

		// 5. Fail fast before scanning
		if daterange.DurationDays(req.StartDate, req.EndDate) < pricing.MinimumStayDays {
			return ErrStayTooShort
		}

		// 6. Check for Overlaps
		active, err := s.repo.ListActiveByOffice(ctx, o.ID)
		if err != nil {
			return err
		}
		for _, existing := range active {
			if daterange.Overlaps(existing.StartDate, existing.EndDate, req.StartDate, req.EndDate) {
				return ErrDateConflict
			}
		}

		// 7. Price
		price, err := pricing.Calculate(req.StartDate, req.EndDate, o.PricePerDay, o.MonthlyDiscount)
		if err != nil {
			return err
		}

		// 8. Commit
		r := &Reservation{
			OfficeID:      o.ID,
			OfficeTitle:   o.Title,
			OfficeOwnerID: o.OwnerID,
			UserID:        req.UserID,
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
			Status:        StatusActive,
			Price:         price,
		}
		if err := s.repo.Create(ctx, r); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		// Both a timed-out wait and a client that went away while queued are reported as busy.
		if lock.NotAcquired(err) {
			return nil, apperror.Wrap(ErrBusy, err)
		}
		return nil, err
	}

	log.Printf("reservation_created id=%d office_id=%d user_id=%s range=%s price=%d",
		created.ID, created.OfficeID, created.UserID, created.Range(), created.Price)
	return created, nil
}

// bookableOffice loads the office and checks the requester may book it.
func (s *service) bookableOffice(ctx context.Context, officeID int64, userID string) (*office.Office, error) {
	o, err := s.offices.GetByID(ctx, officeID)
	if err != nil {
		if errors.Is(err, office.ErrNotFound) {
			return nil, ErrOfficeNotFound
		}
		return nil, err
	}
	if o.OwnerID == userID {
		return nil, ErrSelfBooking
	}
	if !o.Bookable() {
		return nil, ErrOfficeNotBookable
	}
	return o, nil
}

// GetByID returns a reservation to its visitor or to the host of its office.
func (s *service) GetByID(ctx context.Context, id int64, actorID string) (*Reservation, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != actorID && r.OfficeOwnerID != actorID {
		return nil, ErrPermissionDenied
	}
	return r, nil
}

func validateFilter(filter Filter) error {
	if filter.Status != "" && !filter.Status.Valid() {
		return ErrInvalidFilter
	}
	if filter.Within != nil && !filter.Within.End.After(filter.Within.Start) {
		return ErrInvalidFilter
	}
	return nil
}

// List returns the visitor's own reservations.
func (s *service) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	if err := validateFilter(filter); err != nil {
		return nil, 0, err
	}
	filter.HostID = ""
	return s.repo.List(ctx, filter)
}

// ListForHost returns reservations made on the host's offices.
func (s *service) ListForHost(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	if err := validateFilter(filter); err != nil {
		return nil, 0, err
	}
	filter.UserID = ""
	return s.repo.List(ctx, filter)
}

// Cancel flips the visitor's own active reservation to cancelled. Nothing else about it changes.
func (s *service) Cancel(ctx context.Context, id int64, actorID string) (*Reservation, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != actorID {
		return nil, ErrPermissionDenied
	}
	if r.Status != StatusActive {
		return nil, ErrNotActive
	}

	if err := s.repo.Cancel(ctx, id); err != nil {
		return nil, err
	}
	r.Status = StatusCancelled

	log.Printf("reservation_cancelled id=%d office_id=%d user_id=%s", r.ID, r.OfficeID, r.UserID)
	return r, nil
}
