package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pulsefeed/pulsefeed/internal/cache"
)

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}
func (brokenStore) SetForever(context.Context, string, []byte) error {
	return errors.New("store down")
}
func (brokenStore) Delete(context.Context, ...string) error {
	return errors.New("store down")
}
func (brokenStore) Increment(context.Context, string, int64) (int64, error) {
	return 0, errors.New("store down")
}
func (brokenStore) Expire(context.Context, string, time.Duration) error {
	return errors.New("store down")
}
func (brokenStore) Keys(context.Context, string) ([]string, error) {
	return nil, errors.New("store down")
}

func TestStoreRateStoreCountsIntoWindows(t *testing.T) {
	store := cache.NewMemoryStore()
	rates := NewStoreRateStore(store)
	ctx := context.Background()

	count, retry, err := rates.Increment(ctx, "admission:general:client", 3, time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
	require.Equal(t, time.Minute, retry)

	count, _, err = rates.Increment(ctx, "admission:general:client", 1, time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(4), count)

	// The first hit armed the window; once it passes the counter restarts.
	now := time.Now()
	store.SetClock(func() time.Time { return now.Add(2 * time.Minute) })

	count, _, err = rates.Increment(ctx, "admission:general:client", 1, time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestStoreRateStoreNilStore(t *testing.T) {
	require.Nil(t, NewStoreRateStore(nil))
}

func TestGateStoreBackedExhaustsBudget(t *testing.T) {
	store := cache.NewMemoryStore()
	a := newTestAdmission(t, testAdmissionConfig(), nil, WithRateStore(NewStoreRateStore(store)))

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, gateRequest(t, a, ClassRead).Code, "request %d should be admitted", i)
	}

	w := gateRequest(t, a, ClassRead)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
	require.Contains(t, w.Body.String(), "RATE_LIMITED")

	// The window expires with the counter key.
	now := time.Now()
	store.SetClock(func() time.Time { return now.Add(2 * time.Minute) })
	require.Equal(t, http.StatusOK, gateRequest(t, a, ClassRead).Code)
}

func TestGateStoreBackedWriteBudgetIsStricter(t *testing.T) {
	store := cache.NewMemoryStore()
	a := newTestAdmission(t, testAdmissionConfig(), nil, WithRateStore(NewStoreRateStore(store)))

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, gateRequest(t, a, ClassWrite).Code)
	}

	// General budget (2 units per write, capacity 10) still has room but the
	// write budget of 3 is spent.
	require.Equal(t, http.StatusTooManyRequests, gateRequest(t, a, ClassWrite).Code)
	require.Equal(t, http.StatusOK, gateRequest(t, a, ClassRead).Code)
}

func TestGateStoreBackedCountersAreShared(t *testing.T) {
	store := cache.NewMemoryStore()
	first := newTestAdmission(t, testAdmissionConfig(), nil, WithRateStore(NewStoreRateStore(store)))
	second := newTestAdmission(t, testAdmissionConfig(), nil, WithRateStore(NewStoreRateStore(store)))

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, gateRequest(t, first, ClassRead).Code)
	}

	// A sibling instance sharing the store sees the spent budget.
	require.Equal(t, http.StatusTooManyRequests, gateRequest(t, second, ClassRead).Code)
}

func TestGateStoreBackedFailsOpen(t *testing.T) {
	a := newTestAdmission(t, testAdmissionConfig(), nil, WithRateStore(NewStoreRateStore(brokenStore{})))

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusOK, gateRequest(t, a, ClassRead).Code)
	}
}
