package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sfmarket/daily-spin/internal/models"
)

// ErrDuplicateSerial reports a conditional insert that lost to an
// existing serial number. The uniqueness constraint lives in the
// database, so there is no separate check-then-insert step to race.
var ErrDuplicateSerial = errors.New("serial number already exists")

type CouponRepo struct {
	db *sql.DB
}

func NewCouponRepo(db *sql.DB) *CouponRepo {
	return &CouponRepo{db: db}
}

// Insert stores a new coupon record and assigns its backend id.
func (r *CouponRepo) Insert(ctx context.Context, amount int, serialNumber string, createdAt, expiresAt time.Time) (*models.Coupon, error) {
	c := models.Coupon{
		ID:           uuid.NewString(),
		Amount:       amount,
		SerialNumber: serialNumber,
		CreatedAt:    createdAt,
		ExpiresAt:    expiresAt,
	}

	query := `
		INSERT INTO coupons (id, amount, serial_number, created_at, expires_at, is_used)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Amount, c.SerialNumber, c.CreatedAt, c.ExpiresAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateSerial
		}
		return nil, fmt.Errorf("insert coupon: %w", err)
	}
	return &c, nil
}

// GetByID returns one coupon, or nil when no such record exists.
func (r *CouponRepo) GetByID(ctx context.Context, id string) (*models.Coupon, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetBySerial returns the coupon carrying serialNumber, or nil.
func (r *CouponRepo) GetBySerial(ctx context.Context, serialNumber string) (*models.Coupon, error) {
	return r.getOne(ctx, `WHERE serial_number = $1`, serialNumber)
}

func (r *CouponRepo) getOne(ctx context.Context, where string, arg interface{}) (*models.Coupon, error) {
	query := `
		SELECT id, amount, serial_number, created_at, expires_at, is_used, used_at
		FROM coupons ` + where

	var c models.Coupon
	var usedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID,
		&c.Amount,
		&c.SerialNumber,
		&c.CreatedAt,
		&c.ExpiresAt,
		&c.IsUsed,
		&usedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if usedAt.Valid {
		c.UsedAt = &usedAt.Time
	}
	return &c, nil
}

// List returns one page of records sorted by creation time descending,
// plus the unfiltered total count.
func (r *CouponRepo) List(ctx context.Context, page, limit int) ([]models.Coupon, int, error) {
	offset := (page - 1) * limit

	query := `
		SELECT id, amount, serial_number, created_at, expires_at, is_used, used_at
		FROM coupons
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []models.Coupon{}
	for rows.Next() {
		var c models.Coupon
		var usedAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Amount, &c.SerialNumber, &c.CreatedAt, &c.ExpiresAt, &c.IsUsed, &usedAt); err != nil {
			return nil, 0, fmt.Errorf("scan coupon: %w", err)
		}
		if usedAt.Valid {
			c.UsedAt = &usedAt.Time
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}
	return coupons, total, nil
}

// Delete removes one record, reporting whether it existed.
func (r *CouponRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete coupon: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete coupon: %w", err)
	}
	return n > 0, nil
}

// DeleteAll empties the collection and reports how many records went.
func (r *CouponRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons`)
	if err != nil {
		return 0, fmt.Errorf("delete all coupons: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all coupons: %w", err)
	}
	return n, nil
}

// SetUsed sets the used flag, stamping used_at on the transition to
// used and clearing it when un-using. Reports whether a record matched.
func (r *CouponRepo) SetUsed(ctx context.Context, id string, used bool) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	query := `
		UPDATE coupons
		SET is_used = $2,
		    used_at = CASE WHEN $2 THEN NOW() ELSE NULL END
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, used)
	if err != nil {
		return false, fmt.Errorf("update coupon used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update coupon used: %w", err)
	}
	return n > 0, nil
}

// Stats computes all five aggregate fields in one traversal. An empty
// collection yields the all-zero tuple, not an error.
func (r *CouponRepo) Stats(ctx context.Context) (*models.Stats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_used),
		       COUNT(*) FILTER (WHERE NOT is_used),
		       COALESCE(SUM(amount), 0),
		       COALESCE(SUM(amount) FILTER (WHERE is_used), 0)
		FROM coupons
	`
	var s models.Stats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.TotalCoupons,
		&s.UsedCoupons,
		&s.UnusedCoupons,
		&s.TotalAmount,
		&s.UsedAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("coupon stats: %w", err)
	}
	return &s, nil
}
