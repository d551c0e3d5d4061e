package office

import (
	"context"
	"strconv"
	"strings"

	"github.com/nekogravitycat/office-booking-backend/internal/geo"
	"github.com/nekogravitycat/office-booking-backend/internal/lock"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
)

// CreateRequest carries data to create an office.
type CreateRequest struct {
	OwnerID         string
	Title           string
	Description     string
	AddressLine1    string
	Latitude        float64
	Longitude       float64
	PricePerDay     int64
	MonthlyDiscount int
	Hidden          bool
}

// UpdateRequest carries data for partial updates.
type UpdateRequest struct {
	Title           *string
	Description     *string
	AddressLine1    *string
	Latitude        *float64
	Longitude       *float64
	PricePerDay     *int64
	MonthlyDiscount *int
	Hidden          *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Office, error)
	GetByID(ctx context.Context, id int64) (*Office, error)
	ListBookable(ctx context.Context, filter ListFilter) ([]*Office, int, error)
	Update(ctx context.Context, id int64, actorID string, req UpdateRequest) (*Office, error)
	Delete(ctx context.Context, id int64, actorID string) error
	Review(ctx context.Context, id int64, status ApprovalStatus) (*Office, error)
}

type service struct {
	repo   Repository
	locker lock.Locker
}

// NewService creates the listing service. The locker is shared with the booking engine
// so that removing an office and booking it are serialized on the same key.
func NewService(repo Repository, locker lock.Locker) Service {
	return &service{repo: repo, locker: locker}
}

// LockKey names the per-office lock.
func LockKey(officeID int64) string {
	return "reservations_office_" + strconv.FormatInt(officeID, 10)
}

// validateOffice checks the logical rules for an Office struct.
func validateOffice(o *Office) error {
	if strings.TrimSpace(o.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(o.Description) == "" {
		return ErrDescriptionRequired
	}
	if strings.TrimSpace(o.AddressLine1) == "" {
		return ErrAddressRequired
	}
	if err := o.Position().Validate(); err != nil {
		return err
	}
	if o.PricePerDay < MinPricePerDay {
		return ErrPriceTooLow
	}
	if o.PricePerDay > MaxPricePerDay {
		return ErrPriceTooHigh
	}
	if o.MonthlyDiscount < 0 || o.MonthlyDiscount > MaxMonthlyDiscount {
		return ErrDiscountOutOfRange
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Office, error) {
	o := &Office{
		OwnerID:         req.OwnerID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		AddressLine1:    req.AddressLine1,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		PricePerDay:     req.PricePerDay,
		MonthlyDiscount: req.MonthlyDiscount,
		Hidden:          req.Hidden,
		ApprovalStatus:  InitialStatus(),
	}

	if err := validateOffice(o); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*Office, error) {
	return s.repo.GetByID(ctx, id)
}

// ListBookable returns one page of offices and the total number of matches.
// Unless the requester is listing their own offices or their own visits, only approved, visible offices are returned.
// Ordering is by distance when an origin is given, otherwise by ascending id.
func (s *service) ListBookable(ctx context.Context, filter ListFilter) ([]*Office, int, error) {
	if filter.Origin != nil {
		if err := filter.Origin.Validate(); err != nil {
			return nil, 0, err
		}
	}

	candidates, err := s.repo.ListCandidates(ctx, CandidateQuery{
		OwnerID:       filter.OwnerID,
		VisitorID:     filter.VisitorID,
		OnlyPublished: !filter.includesUnpublished(),
	})
	if err != nil {
		return nil, 0, err
	}

	ranked, err := geo.Rank(candidates, filter.Origin)
	if err != nil {
		return nil, 0, err
	}

	return response.Paginate(ranked, filter.Page, filter.PageSize), len(ranked), nil
}

// withLock runs fn under the office's lock, the same one the booking engine takes.
// Every read-modify-write of an office row runs under it.
func (s *service) withLock(ctx context.Context, id int64, fn func() error) error {
	err := lock.With(ctx, s.locker, LockKey(id), fn)
	if lock.NotAcquired(err) {
		return apperror.Wrap(ErrBusy, err)
	}
	return err
}

func (s *service) Update(ctx context.Context, id int64, actorID string, req UpdateRequest) (*Office, error) {
	var updated *Office
	err := s.withLock(ctx, id, func() error {
		o, err := s.update(ctx, id, actorID, req)
		updated = o
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// update applies req to the current row. Callers hold the office lock.
func (s *service) update(ctx context.Context, id int64, actorID string, req UpdateRequest) (*Office, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.OwnerID != actorID {
		return nil, ErrPermissionDenied
	}

	// Apply non-nil fields, remembering which values actually changed.
	var changed []Field
	if req.Title != nil && *req.Title != o.Title {
		o.Title = strings.TrimSpace(*req.Title)
		changed = append(changed, FieldTitle)
	}
	if req.Description != nil && *req.Description != o.Description {
		o.Description = *req.Description
		changed = append(changed, FieldDescription)
	}
	if req.AddressLine1 != nil && *req.AddressLine1 != o.AddressLine1 {
		o.AddressLine1 = *req.AddressLine1
		changed = append(changed, FieldAddress)
	}
	if req.Latitude != nil && *req.Latitude != o.Latitude {
		o.Latitude = *req.Latitude
		changed = append(changed, FieldLatitude)
	}
	if req.Longitude != nil && *req.Longitude != o.Longitude {
		o.Longitude = *req.Longitude
		changed = append(changed, FieldLongitude)
	}
	if req.PricePerDay != nil && *req.PricePerDay != o.PricePerDay {
		o.PricePerDay = *req.PricePerDay
		changed = append(changed, FieldPricePerDay)
	}
	if req.MonthlyDiscount != nil && *req.MonthlyDiscount != o.MonthlyDiscount {
		o.MonthlyDiscount = *req.MonthlyDiscount
		changed = append(changed, FieldMonthlyDiscount)
	}
	if req.Hidden != nil && *req.Hidden != o.Hidden {
		o.Hidden = *req.Hidden
		changed = append(changed, FieldHidden)
	}

	if len(changed) == 0 {
		return o, nil
	}

	// Validate logical rules
	if err := validateOffice(o); err != nil {
		return nil, err
	}

	o.ApprovalStatus = ApplyEdit(o.ApprovalStatus, changed)

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Delete soft-removes an office. It is refused while any reservation, active or not, references the office.
func (s *service) Delete(ctx context.Context, id int64, actorID string) error {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if o.OwnerID != actorID {
		return ErrPermissionDenied
	}

	return s.withLock(ctx, id, func() error {
		has, err := s.repo.HasReservations(ctx, id)
		if err != nil {
			return err
		}
		if has {
			return ErrHasReservations
		}
		return s.repo.SoftDelete(ctx, id)
	})
}

// Review records the reviewer's decision.
func (s *service) Review(ctx context.Context, id int64, status ApprovalStatus) (*Office, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, ErrInvalidReview
	}

	var reviewed *Office
	err := s.withLock(ctx, id, func() error {
		o, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		o.ApprovalStatus = status
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		reviewed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}
