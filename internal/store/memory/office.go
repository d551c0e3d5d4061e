package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/nekogravitycat/office-booking-backend/internal/office"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
)

type officeRow struct {
	office.Office
}

// OfficeRepo implements office.Repository.
type OfficeRepo struct {
	s *Store
}

var _ office.Repository = (*OfficeRepo)(nil)

// view copies a row and fills in the joined columns. Callers hold at least the read lock.
func (r *OfficeRepo) view(row *officeRow) *office.Office {
	o := row.Office
	if owner, ok := r.s.users[o.OwnerID]; ok {
		o.OwnerName = owner.Name()
	}
	o.ActiveReservationsCount = 0
	for _, res := range r.s.reservations {
		if res.OfficeID == o.ID && res.Status == reservation.StatusActive {
			o.ActiveReservationsCount++
		}
	}
	return &o
}

func (r *OfficeRepo) Create(ctx context.Context, o *office.Office) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextOfficeID++
	o.ID = r.s.nextOfficeID
	o.CreatedAt = r.s.now()
	o.UpdatedAt = o.CreatedAt
	r.s.offices[o.ID] = &officeRow{Office: *o}
	return nil
}

func (r *OfficeRepo) GetByID(ctx context.Context, id int64) (*office.Office, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.offices[id]
	if !ok || row.DeletedAt != nil {
		return nil, office.ErrNotFound
	}
	return r.view(row), nil
}

func (r *OfficeRepo) ListCandidates(ctx context.Context, q office.CandidateQuery) ([]*office.Office, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*office.Office
	for _, row := range r.s.offices {
		if row.DeletedAt != nil {
			continue
		}
		if q.OnlyPublished && (row.Hidden || row.ApprovalStatus != office.StatusApproved) {
			continue
		}
		if q.OwnerID != "" && row.OwnerID != q.OwnerID {
			continue
		}
		if q.VisitorID != "" && !r.visited(row.ID, q.VisitorID) {
			continue
		}
		out = append(out, r.view(row))
	}

	slices.SortFunc(out, func(a, b *office.Office) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *OfficeRepo) visited(officeID int64, userID string) bool {
	for _, res := range r.s.reservations {
		if res.OfficeID == officeID && res.UserID == userID {
			return true
		}
	}
	return false
}

func (r *OfficeRepo) Update(ctx context.Context, o *office.Office) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.offices[o.ID]
	if !ok || row.DeletedAt != nil {
		return office.ErrNotFound
	}

	o.UpdatedAt = r.s.now()
	row.Title = o.Title
	row.Description = o.Description
	row.AddressLine1 = o.AddressLine1
	row.Latitude = o.Latitude
	row.Longitude = o.Longitude
	row.PricePerDay = o.PricePerDay
	row.MonthlyDiscount = o.MonthlyDiscount
	row.Hidden = o.Hidden
	row.ApprovalStatus = o.ApprovalStatus
	row.UpdatedAt = o.UpdatedAt
	return nil
}

func (r *OfficeRepo) SoftDelete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.offices[id]
	if !ok || row.DeletedAt != nil {
		return office.ErrNotFound
	}
	now := r.s.now()
	row.DeletedAt = &now
	return nil
}

func (r *OfficeRepo) HasReservations(ctx context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, res := range r.s.reservations {
		if res.OfficeID == id {
			return true, nil
		}
	}
	return false, nil
}
