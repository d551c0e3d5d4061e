package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
)

type reservationRow struct {
	reservation.Reservation
}

// ReservationRepo implements reservation.Repository.
type ReservationRepo struct {
	s *Store
}

var _ reservation.Repository = (*ReservationRepo)(nil)

// view copies a row and fills in the joined office columns. Callers hold at least the read lock.
func (r *ReservationRepo) view(row *reservationRow) *reservation.Reservation {
	res := row.Reservation
	if o, ok := r.s.offices[res.OfficeID]; ok {
		res.OfficeTitle = o.Title
		res.OfficeOwnerID = o.OwnerID
	}
	return &res
}

func (r *ReservationRepo) Create(ctx context.Context, res *reservation.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextReservationID++
	res.ID = r.s.nextReservationID
	res.CreatedAt = r.s.now()
	res.UpdatedAt = res.CreatedAt
	r.s.reservations[res.ID] = &reservationRow{Reservation: *res}
	return nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, id int64) (*reservation.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.reservations[id]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	return r.view(row), nil
}

func (r *ReservationRepo) ListActiveByOffice(ctx context.Context, officeID int64) ([]*reservation.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*reservation.Reservation
	for _, row := range r.s.reservations {
		if row.OfficeID == officeID && row.Status == reservation.StatusActive {
			out = append(out, r.view(row))
		}
	}
	slices.SortFunc(out, func(a, b *reservation.Reservation) int {
		return a.StartDate.Compare(b.StartDate)
	})
	return out, nil
}

func (r *ReservationRepo) matches(row *reservationRow, f reservation.Filter) bool {
	if f.UserID != "" && row.UserID != f.UserID {
		return false
	}
	if f.HostID != "" {
		o, ok := r.s.offices[row.OfficeID]
		if !ok || o.OwnerID != f.HostID {
			return false
		}
	}
	if f.OfficeID != 0 && row.OfficeID != f.OfficeID {
		return false
	}
	if f.Status != "" && row.Status != f.Status {
		return false
	}
	if f.Within != nil && !row.Range().Overlaps(*f.Within) {
		return false
	}
	return true
}

func (r *ReservationRepo) List(ctx context.Context, filter reservation.Filter) ([]*reservation.Reservation, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []*reservation.Reservation
	for _, row := range r.s.reservations {
		if r.matches(row, filter) {
			all = append(all, r.view(row))
		}
	}
	slices.SortFunc(all, func(a, b *reservation.Reservation) int {
		return cmp.Compare(a.ID, b.ID)
	})

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return response.Paginate(all, page, pageSize), len(all), nil
}

func (r *ReservationRepo) Cancel(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.reservations[id]
	if !ok {
		return reservation.ErrNotFound
	}
	if row.Status != reservation.StatusActive {
		return reservation.ErrNotActive
	}
	row.Status = reservation.StatusCancelled
	row.UpdatedAt = r.s.now()
	return nil
}
