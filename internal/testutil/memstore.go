// Package testutil holds in-memory fakes shared by the service and
// handler tests.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sfmarket/daily-spin/internal/models"
	"github.com/sfmarket/daily-spin/internal/repository"
)

// ErrForced is returned by every MemCouponStore method when Err is set.
var ErrForced = errors.New("forced storage failure")

// MemCouponStore is an in-memory CouponStore with the same observable
// semantics as the Postgres repository: conditional insert on serial,
// newest-first listing, single-pass stats, all-zero stats when empty.
type MemCouponStore struct {
	mu      sync.Mutex
	coupons []models.Coupon

	// Err, when set, fails every operation.
	Err error
	// Now is the clock used for used_at stamps; defaults to time.Now.
	Now func() time.Time
}

func NewMemCouponStore() *MemCouponStore {
	return &MemCouponStore{Now: time.Now}
}

func (m *MemCouponStore) Insert(_ context.Context, amount int, serialNumber string, createdAt, expiresAt time.Time) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, c := range m.coupons {
		if c.SerialNumber == serialNumber {
			return nil, repository.ErrDuplicateSerial
		}
	}
	c := models.Coupon{
		ID:           uuid.NewString(),
		Amount:       amount,
		SerialNumber: serialNumber,
		CreatedAt:    createdAt,
		ExpiresAt:    expiresAt,
	}
	m.coupons = append(m.coupons, c)
	return &c, nil
}

func (m *MemCouponStore) GetByID(_ context.Context, id string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.coupons {
		if m.coupons[i].ID == id {
			cp := m.coupons[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemCouponStore) GetBySerial(_ context.Context, serialNumber string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.coupons {
		if m.coupons[i].SerialNumber == serialNumber {
			cp := m.coupons[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemCouponStore) List(_ context.Context, page, limit int) ([]models.Coupon, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}

	sorted := append([]models.Coupon(nil), m.coupons...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	offset := (page - 1) * limit
	if offset >= len(sorted) {
		return []models.Coupon{}, len(m.coupons), nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end], len(m.coupons), nil
}

func (m *MemCouponStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for i := range m.coupons {
		if m.coupons[i].ID == id {
			m.coupons = append(m.coupons[:i], m.coupons[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemCouponStore) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	n := int64(len(m.coupons))
	m.coupons = nil
	return n, nil
}

func (m *MemCouponStore) SetUsed(_ context.Context, id string, used bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for i := range m.coupons {
		if m.coupons[i].ID == id {
			m.coupons[i].IsUsed = used
			if used {
				t := m.Now()
				m.coupons[i].UsedAt = &t
			} else {
				m.coupons[i].UsedAt = nil
			}
			return true, nil
		}
	}
	return false, nil
}

func (m *MemCouponStore) Stats(_ context.Context) (*models.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var s models.Stats
	for _, c := range m.coupons {
		s.TotalCoupons++
		s.TotalAmount += c.Amount
		if c.IsUsed {
			s.UsedCoupons++
			s.UsedAmount += c.Amount
		} else {
			s.UnusedCoupons++
		}
	}
	return &s, nil
}
