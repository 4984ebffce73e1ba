package service

import (
	"context"
	"time"

	"github.com/sfmarket/daily-spin/internal/models"
)

// CouponStore is what the service needs from storage (use interfaces
// to allow mocking).
type CouponStore interface {
	Insert(ctx context.Context, amount int, serialNumber string, createdAt, expiresAt time.Time) (*models.Coupon, error)
	GetByID(ctx context.Context, id string) (*models.Coupon, error)
	GetBySerial(ctx context.Context, serialNumber string) (*models.Coupon, error)
	List(ctx context.Context, page, limit int) ([]models.Coupon, int, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
	SetUsed(ctx context.Context, id string, used bool) (bool, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// CouponService owns the durable-coupon business rules, independent of
// any client's local quota state.
type CouponService struct {
	store CouponStore
}

func NewCouponService(store CouponStore) *CouponService {
	return &CouponService{store: store}
}

// CreateCoupon inserts a new record. CreatedAt defaults to now;
// ExpiresAt defaults to CreatedAt + 30 days, computed once here and
// never recomputed. A duplicate serial surfaces as the storage layer's
// conflict error.
func (s *CouponService) CreateCoupon(ctx context.Context, amount int, serialNumber string, createdAt, expiresAt *time.Time) (*models.Coupon, error) {
	created := time.Now()
	if createdAt != nil {
		created = *createdAt
	}
	expires := created.AddDate(0, 0, models.ValidityDays)
	if expiresAt != nil {
		expires = *expiresAt
	}
	return s.store.Insert(ctx, amount, serialNumber, created, expires)
}

// GetCouponByID returns (nil, nil) when no record has that backend id.
func (s *CouponService) GetCouponByID(ctx context.Context, id string) (*models.Coupon, error) {
	return s.store.GetByID(ctx, id)
}

// GetCouponBySerial returns (nil, nil) when no record carries serial.
func (s *CouponService) GetCouponBySerial(ctx context.Context, serialNumber string) (*models.Coupon, error) {
	return s.store.GetBySerial(ctx, serialNumber)
}

// GetAllCoupons returns one page, newest first, with the unfiltered
// total. Out-of-range page and limit fall back to the defaults.
func (s *CouponService) GetAllCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return s.store.List(ctx, page, limit)
}

// DeleteCoupon reports true iff a record with that id existed.
func (s *CouponService) DeleteCoupon(ctx context.Context, id string) (bool, error) {
	return s.store.Delete(ctx, id)
}

// DeleteAllCoupons empties the collection.
func (s *CouponService) DeleteAllCoupons(ctx context.Context) (int64, error) {
	return s.store.DeleteAll(ctx)
}

// UpdateCouponUsedStatus reports true iff a matching record was found.
func (s *CouponService) UpdateCouponUsedStatus(ctx context.Context, id string, used bool) (bool, error) {
	return s.store.SetUsed(ctx, id, used)
}

// GetCouponStats computes all counts and sums in a single pass.
func (s *CouponService) GetCouponStats(ctx context.Context) (*models.Stats, error) {
	return s.store.Stats(ctx)
}
