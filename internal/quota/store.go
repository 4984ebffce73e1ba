// Package quota tracks a visitor's per-calendar-day draw allowance and
// the coupons drawn under it. The record lives in client-local storage
// and resets lazily on the first access of a new local day; there is no
// server-side counterpart.
package quota

import (
	"time"

	"github.com/sfmarket/daily-spin/internal/models"
	"github.com/sfmarket/daily-spin/internal/serial"
)

// Store reads and mutates the daily quota record through an injected
// Storage. All operations run the lazy-reset check first. Mutation is
// plain read-modify-write; the only guard against overlapping draws is
// the orchestrator's re-entrancy flag.
type Store struct {
	storage Storage
	now     func() time.Time
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage, now: time.Now}
}

// NewStoreWithClock fixes the clock; for day-boundary tests.
func NewStoreWithClock(storage Storage, now func() time.Time) *Store {
	return &Store{storage: storage, now: now}
}

// CheckAndResetDaily ensures the persisted record belongs to today,
// replacing it wholesale if not. Idempotent within a calendar day.
func (s *Store) CheckAndResetDaily() error {
	_, err := s.TodayData()
	return err
}

// TodayData returns the current record, constructing and persisting a
// fresh default when the store is empty or stale.
func (s *Store) TodayData() (*Record, error) {
	today := dayString(s.now())

	rec, ok, err := s.storage.Get()
	if err != nil {
		return nil, err
	}
	if !ok {
		rec = nil
	}

	reset := resetFor(rec, today)
	if reset != rec {
		if err := s.storage.Set(reset); err != nil {
			return nil, err
		}
	}
	return reset, nil
}

// RemainingChances reports how many draws are left today.
func (s *Store) RemainingChances() (int, error) {
	rec, err := s.TodayData()
	if err != nil {
		return 0, err
	}
	return rec.RemainingChances, nil
}

// TodayCoupons returns the coupons drawn today, oldest first.
func (s *Store) TodayCoupons() ([]Coupon, error) {
	rec, err := s.TodayData()
	if err != nil {
		return nil, err
	}
	return rec.Coupons, nil
}

// IsFirstWinToday is true iff exactly one coupon exists in today's
// record. Not idempotent across further draws; it is a trigger for a
// one-time celebratory effect, not a stable property.
func (s *Store) IsFirstWinToday() (bool, error) {
	rec, err := s.TodayData()
	if err != nil {
		return false, err
	}
	return len(rec.Coupons) == 1, nil
}

// AddCouponAndReduceChance is the sole mutator. It returns (nil, nil)
// when the quota is exhausted. Otherwise it mints a serial number and a
// local id, stamps CreatedAt now and ExpiresAt now + 30 days, appends
// the coupon, decrements the allowance and persists the whole record.
func (s *Store) AddCouponAndReduceChance(amount int) (*Coupon, error) {
	rec, err := s.TodayData()
	if err != nil {
		return nil, err
	}
	if rec.RemainingChances <= 0 {
		return nil, nil
	}

	now := s.now()
	c := Coupon{
		ID:           serial.NewCouponNumber(),
		Amount:       amount,
		SerialNumber: serial.NewSerialNumber(),
		CreatedAt:    now,
		ExpiresAt:    now.AddDate(0, 0, models.ValidityDays),
	}

	rec.Coupons = append(rec.Coupons, c)
	rec.RemainingChances--
	if err := s.storage.Set(rec); err != nil {
		return nil, err
	}
	return &c, nil
}
