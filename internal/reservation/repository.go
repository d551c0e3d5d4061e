package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/office-booking-backend/internal/daterange"
)

// Repository defines data access methods for reservations.
type Repository interface {
	Create(ctx context.Context, r *Reservation) error
	GetByID(ctx context.Context, id int64) (*Reservation, error)
	// ListActiveByOffice returns every ACTIVE reservation of the office. The booking engine calls it under the office lock.
	ListActiveByOffice(ctx context.Context, officeID int64) ([]*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)
	// Cancel flips an ACTIVE reservation to CANCELLED; ErrNotActive otherwise.
	Cancel(ctx context.Context, id int64) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var reservationColumns = []string{
	"r.id", "r.office_id", "o.title", "o.owner_id", "r.user_id",
	"r.start_date", "r.end_date", "r.status", "r.price", "r.created_at", "r.updated_at",
}

func scanReservation(row pgx.Row, extra ...any) (*Reservation, error) {
	var res Reservation
	var start, end time.Time
	var status string
	dest := []any{
		&res.ID, &res.OfficeID, &res.OfficeTitle, &res.OfficeOwnerID, &res.UserID,
		&start, &end, &status, &res.Price, &res.CreatedAt, &res.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	res.StartDate = daterange.FromTime(start)
	res.EndDate = daterange.FromTime(end)
	res.Status = Status(status)
	return &res, nil
}

func (r *pgxRepository) Create(ctx context.Context, res *Reservation) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.reservations").
		Columns("office_id", "user_id", "start_date", "end_date", "status", "price").
		Values(res.OfficeID, res.UserID, res.StartDate.Time(), res.EndDate.Time(), string(res.Status), res.Price).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		// The schema's exclusion constraint backs up the lock.
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.ExclusionViolation {
			return ErrDateConflict
		}
		return fmt.Errorf("create reservation failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Reservation, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(reservationColumns...).
		From("public.reservations r").
		Join("public.offices o ON r.office_id = o.id").
		Where(squirrel.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	res, err := scanReservation(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation failed: %w", err)
	}
	return res, nil
}

func (r *pgxRepository) ListActiveByOffice(ctx context.Context, officeID int64) ([]*Reservation, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(reservationColumns...).
		From("public.reservations r").
		Join("public.offices o ON r.office_id = o.id").
		Where(squirrel.Eq{"r.office_id": officeID, "r.status": string(StatusActive)}).
		OrderBy("r.start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active reservations failed: %w", err)
	}
	defer rows.Close()

	var out []*Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation failed: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active reservations failed: %w", err)
	}
	return out, nil
}

// applyFilter adds the WHERE clauses for filter. Paging is left to the caller.
func applyFilter(query squirrel.SelectBuilder, filter Filter) squirrel.SelectBuilder {
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"r.user_id": filter.UserID})
	}
	if filter.HostID != "" {
		query = query.Where(squirrel.Eq{"o.owner_id": filter.HostID})
	}
	if filter.OfficeID != 0 {
		query = query.Where(squirrel.Eq{"r.office_id": filter.OfficeID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"r.status": string(filter.Status)})
	}
	if filter.Within != nil {
		// Closed ranges intersect when each starts no later than the other ends.
		query = query.Where(squirrel.LtOrEq{"r.start_date": filter.Within.End.Time()}).
			Where(squirrel.GtOrEq{"r.end_date": filter.Within.Start.Time()})
	}
	return query
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(reservationColumns, "count(*) OVER() as total_count")...).
		From("public.reservations r").
		Join("public.offices o ON r.office_id = o.id")

	query = applyFilter(query, filter).OrderBy("r.id ASC")

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations failed: %w", err)
	}
	defer rows.Close()

	var out []*Reservation
	var total int
	for rows.Next() {
		res, err := scanReservation(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan reservation failed: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list reservations failed: %w", err)
	}

	// A page past the end has no rows to carry the window count.
	if len(out) == 0 && filter.Page > 1 {
		total, err = r.count(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (r *pgxRepository) count(ctx context.Context, filter Filter) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select("count(*)").
		From("public.reservations r").
		Join("public.offices o ON r.office_id = o.id")

	sql, args, err := applyFilter(query, filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count reservations query failed: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count reservations failed: %w", err)
	}
	return total, nil
}

func (r *pgxRepository) Cancel(ctx context.Context, id int64) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.reservations").
		Set("status", string(StatusCancelled)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": string(StatusActive)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build cancel reservation query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("cancel reservation failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotActive
	}
	return nil
}
