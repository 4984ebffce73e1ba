// Package spin drives one draw attempt end to end: quota check, local
// issuance, and the best-effort mirror of the new coupon to the
// backend. Local state is the source of truth for the session; the
// backend copy may lag or be missing if the mirror call fails.
package spin

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/sfmarket/daily-spin/internal/models"
	"github.com/sfmarket/daily-spin/internal/quota"
)

// DefaultAmounts is the closed set of discount denominations a draw
// can land on. Override via SPIN_AMOUNTS.
var DefaultAmounts = []int{1000, 2000, 3000, 5000, 10000}

// ErrDrawInProgress signals a trigger that arrived while a draw was
// still settling; such triggers are ignored, not queued.
var ErrDrawInProgress = errors.New("draw already in progress")

// Mirror persists an issued coupon to durable backend storage.
type Mirror interface {
	CreateCoupon(ctx context.Context, req models.CreateCouponRequest) (*models.Coupon, error)
}

// Result is the settled outcome of one draw attempt.
type Result struct {
	// Coupon is nil iff Rejected.
	Coupon *quota.Coupon
	// Rejected means the quota was exhausted; the record is unchanged.
	Rejected bool
	// FirstWinToday is true when this draw produced today's first
	// coupon; hook for the one-time celebratory effect.
	FirstWinToday bool
}

type Orchestrator struct {
	quota   *quota.Store
	mirror  Mirror
	amounts []int
	pick    func(n int) int

	drawing atomic.Bool
	mirrors sync.WaitGroup
	log     zerolog.Logger
}

func New(q *quota.Store, mirror Mirror, amounts []int, log zerolog.Logger) *Orchestrator {
	if len(amounts) == 0 {
		amounts = DefaultAmounts
	}
	return &Orchestrator{
		quota:   q,
		mirror:  mirror,
		amounts: amounts,
		pick:    rand.Intn,
		log:     log,
	}
}

// Draw runs one attempt: Idle -> Drawing -> Settled | Rejected.
// A draw in progress makes further triggers return ErrDrawInProgress.
// The user-visible outcome is decided entirely by the local store; the
// mirror call runs asynchronously and its failure is logged and
// swallowed.
func (o *Orchestrator) Draw(ctx context.Context) (*Result, error) {
	if !o.drawing.CompareAndSwap(false, true) {
		return nil, ErrDrawInProgress
	}
	defer o.drawing.Store(false)

	remaining, err := o.quota.RemainingChances()
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		return &Result{Rejected: true}, nil
	}

	amount := o.amounts[o.pick(len(o.amounts))]
	c, err := o.quota.AddCouponAndReduceChance(amount)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &Result{Rejected: true}, nil
	}

	first, err := o.quota.IsFirstWinToday()
	if err != nil {
		// local issuance already succeeded; the effect hook is cosmetic
		o.log.Warn().Err(err).Msg("first-win check failed")
		first = false
	}

	o.mirrors.Add(1)
	go func(c quota.Coupon) {
		defer o.mirrors.Done()
		req := models.CreateCouponRequest{
			Amount:       c.Amount,
			SerialNumber: c.SerialNumber,
			CreatedAt:    c.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
			ExpiresAt:    c.ExpiresAt.Format("2006-01-02T15:04:05.000Z07:00"),
		}
		if _, err := o.mirror.CreateCoupon(context.WithoutCancel(ctx), req); err != nil {
			o.log.Warn().Err(err).Str("serial", c.SerialNumber).
				Msg("mirror failed; coupon stored locally only")
		}
	}(*c)

	return &Result{Coupon: c, FirstWinToday: first}, nil
}

// Flush waits for in-flight mirror calls, or gives up when ctx ends.
// Either way mirror failures stay swallowed.
func (o *Orchestrator) Flush(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		o.mirrors.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		o.log.Warn().Msg("gave up waiting for mirror calls")
	}
}
