package office

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access methods for offices.
// Removed offices are invisible to every read method.
type Repository interface {
	Create(ctx context.Context, o *Office) error
	GetByID(ctx context.Context, id int64) (*Office, error)
	ListCandidates(ctx context.Context, q CandidateQuery) ([]*Office, error)
	Update(ctx context.Context, o *Office) error
	SoftDelete(ctx context.Context, id int64) error
	HasReservations(ctx context.Context, id int64) (bool, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var officeColumns = []string{
	"o.id", "o.owner_id", "COALESCE(u.display_name, '')", "o.title", "o.description", "o.address_line1",
	"o.lat", "o.lng", "o.price_per_day", "o.monthly_discount", "o.hidden", "o.approval_status",
	"o.created_at", "o.updated_at",
	"(SELECT count(*) FROM public.reservations r WHERE r.office_id = o.id AND r.status = 'active')",
}

func scanOffice(row pgx.Row) (*Office, error) {
	var o Office
	var status string
	err := row.Scan(
		&o.ID, &o.OwnerID, &o.OwnerName, &o.Title, &o.Description, &o.AddressLine1,
		&o.Latitude, &o.Longitude, &o.PricePerDay, &o.MonthlyDiscount, &o.Hidden, &status,
		&o.CreatedAt, &o.UpdatedAt,
		&o.ActiveReservationsCount,
	)
	if err != nil {
		return nil, err
	}
	o.ApprovalStatus = ApprovalStatus(status)
	return &o, nil
}

func (r *pgxRepository) Create(ctx context.Context, o *Office) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.offices").
		Columns(
			"owner_id", "title", "description", "address_line1", "lat", "lng",
			"price_per_day", "monthly_discount", "hidden", "approval_status",
		).
		Values(
			o.OwnerID, o.Title, o.Description, o.AddressLine1, o.Latitude, o.Longitude,
			o.PricePerDay, o.MonthlyDiscount, o.Hidden, string(o.ApprovalStatus),
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create office query failed: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create office failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Office, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(officeColumns...).
		From("public.offices o").
		Join("public.users u ON o.owner_id = u.id").
		Where(squirrel.Eq{"o.id": id}).
		Where("o.deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get office query failed: %w", err)
	}

	o, err := scanOffice(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get office failed: %w", err)
	}
	return o, nil
}

// ListCandidates returns every office matching q in ascending id order.
// Distance ordering and paging happen in the service.
func (r *pgxRepository) ListCandidates(ctx context.Context, q CandidateQuery) ([]*Office, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(officeColumns...).
		From("public.offices o").
		Join("public.users u ON o.owner_id = u.id").
		Where("o.deleted_at IS NULL")

	if q.OnlyPublished {
		query = query.Where(squirrel.Eq{"o.approval_status": string(StatusApproved), "o.hidden": false})
	}
	if q.OwnerID != "" {
		query = query.Where(squirrel.Eq{"o.owner_id": q.OwnerID})
	}
	if q.VisitorID != "" {
		query = query.Where(
			"EXISTS (SELECT 1 FROM public.reservations v WHERE v.office_id = o.id AND v.user_id = ?)",
			q.VisitorID,
		)
	}

	sql, args, err := query.OrderBy("o.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list offices query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list offices failed: %w", err)
	}
	defer rows.Close()

	var offices []*Office
	for rows.Next() {
		o, err := scanOffice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan office failed: %w", err)
		}
		offices = append(offices, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list offices failed: %w", err)
	}
	return offices, nil
}

func (r *pgxRepository) Update(ctx context.Context, o *Office) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.offices").
		Set("title", o.Title).
		Set("description", o.Description).
		Set("address_line1", o.AddressLine1).
		Set("lat", o.Latitude).
		Set("lng", o.Longitude).
		Set("price_per_day", o.PricePerDay).
		Set("monthly_discount", o.MonthlyDiscount).
		Set("hidden", o.Hidden).
		Set("approval_status", string(o.ApprovalStatus)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": o.ID}).
		Where("deleted_at IS NULL").
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update office query failed: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update office failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) SoftDelete(ctx context.Context, id int64) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.offices").
		Set("deleted_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete office query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete office failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) HasReservations(ctx context.Context, id int64) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("1").
		From("public.reservations").
		Where(squirrel.Eq{"office_id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build has reservations query failed: %w", err)
	}

	var one int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("HasReservations failed: %w", err)
	}
	return true, nil
}
