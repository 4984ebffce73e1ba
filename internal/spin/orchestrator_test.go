package spin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfmarket/daily-spin/internal/models"
	"github.com/sfmarket/daily-spin/internal/quota"
)

type fakeMirror struct {
	mu   sync.Mutex
	reqs []models.CreateCouponRequest
	err  error
}

func (f *fakeMirror) CreateCoupon(_ context.Context, req models.CreateCouponRequest) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.reqs = append(f.reqs, req)
	return &models.Coupon{SerialNumber: req.SerialNumber, Amount: req.Amount}, nil
}

func (f *fakeMirror) requests() []models.CreateCouponRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CreateCouponRequest(nil), f.reqs...)
}

func newOrchestrator(mirror Mirror) (*Orchestrator, *quota.Store) {
	store := quota.NewStore(&quota.MemStorage{})
	return New(store, mirror, nil, zerolog.Nop()), store
}

func TestDrawSettlesAndMirrors(t *testing.T) {
	mirror := &fakeMirror{}
	orch, store := newOrchestrator(mirror)

	res, err := orch.Draw(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Coupon)
	assert.False(t, res.Rejected)
	assert.True(t, res.FirstWinToday)
	assert.Contains(t, DefaultAmounts, res.Coupon.Amount)

	orch.Flush(context.Background())

	reqs := mirror.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, res.Coupon.SerialNumber, reqs[0].SerialNumber)
	assert.Equal(t, res.Coupon.Amount, reqs[0].Amount)

	created, err := time.Parse(time.RFC3339, reqs[0].CreatedAt)
	require.NoError(t, err)
	expires, err := time.Parse(time.RFC3339, reqs[0].ExpiresAt)
	require.NoError(t, err)
	assert.True(t, expires.Equal(created.AddDate(0, 0, 30)))

	remaining, err := store.RemainingChances()
	require.NoError(t, err)
	assert.Equal(t, quota.DefaultChances-1, remaining)
}

func TestMirrorFailureIsSwallowed(t *testing.T) {
	mirror := &fakeMirror{err: errors.New("backend down")}
	orch, store := newOrchestrator(mirror)

	res, err := orch.Draw(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Coupon)

	orch.Flush(context.Background())

	// local outcome stands regardless of the mirror
	coupons, err := store.TodayCoupons()
	require.NoError(t, err)
	assert.Len(t, coupons, 1)
}

func TestRejectedWhenExhausted(t *testing.T) {
	mirror := &fakeMirror{}
	orch, store := newOrchestrator(mirror)

	for i := 0; i < quota.DefaultChances; i++ {
		res, err := orch.Draw(context.Background())
		require.NoError(t, err)
		require.NotNil(t, res.Coupon)
	}

	res, err := orch.Draw(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Rejected)
	assert.Nil(t, res.Coupon)

	orch.Flush(context.Background())
	assert.Len(t, mirror.requests(), quota.DefaultChances)

	remaining, err := store.RemainingChances()
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestOverlappingTriggerIgnored(t *testing.T) {
	mirror := &fakeMirror{}
	orch, _ := newOrchestrator(mirror)

	entered := make(chan struct{})
	release := make(chan struct{})
	orch.pick = func(n int) int {
		close(entered)
		<-release
		return 0
	}

	done := make(chan error, 1)
	go func() {
		_, err := orch.Draw(context.Background())
		done <- err
	}()

	<-entered
	_, err := orch.Draw(context.Background())
	assert.ErrorIs(t, err, ErrDrawInProgress)

	close(release)
	require.NoError(t, <-done)
	orch.Flush(context.Background())

	// only the first trigger produced a coupon
	assert.Len(t, mirror.requests(), 1)
}

func TestFirstWinOnlyOnFirstDraw(t *testing.T) {
	orch, _ := newOrchestrator(&fakeMirror{})

	first, err := orch.Draw(context.Background())
	require.NoError(t, err)
	assert.True(t, first.FirstWinToday)

	second, err := orch.Draw(context.Background())
	require.NoError(t, err)
	assert.False(t, second.FirstWinToday)

	orch.Flush(context.Background())
}
