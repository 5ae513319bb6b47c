package middleware

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
	"github.com/pulsefeed/pulsefeed/pkg/logger"
	"github.com/pulsefeed/pulsefeed/pkg/metrics"
	"github.com/pulsefeed/pulsefeed/pkg/response"
)

// RouteClass labels endpoints for admission control.
type RouteClass string

const (
	// ClassRead covers simple reads (profile, follower lists).
	ClassRead RouteClass = "read"
	// ClassSearch covers search endpoints, which cost more tokens.
	ClassSearch RouteClass = "search"
	// ClassWrite covers mutations; they pass the general bucket and a
	// stricter secondary bucket.
	ClassWrite RouteClass = "write"
	// ClassBatch covers high-frequency UI polling endpoints (feed page,
	// batch like data, random search). They bypass the limiter entirely so
	// normal polling cannot starve legitimate traffic.
	ClassBatch RouteClass = "batch"
)

// Decision is the verdict from the external abuse-detection collaborator.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionDeny
	DecisionRateLimited
)

// Decider is the third-party bot/attack detection collaborator. Only the
// verdict is consumed here; how it is produced is out of scope.
type Decider interface {
	Decide(ctx context.Context, clientIP string, class RouteClass) (Decision, error)
}

// BucketConfig parameterizes one token bucket: Capacity tokens maximum,
// RefillAmount tokens added every RefillInterval.
type BucketConfig struct {
	Capacity       float64
	RefillAmount   float64
	RefillInterval time.Duration
}

func (c BucketConfig) ratePerSecond() float64 {
	if c.RefillInterval <= 0 {
		return c.RefillAmount
	}
	return c.RefillAmount / c.RefillInterval.Seconds()
}

// AdmissionConfig carries every admission-control tunable.
type AdmissionConfig struct {
	General    BucketConfig
	Write      BucketConfig
	ReadCost   float64
	SearchCost float64
	WriteCost  float64
}

// Admission gates requests with per-client token buckets keyed by source
// address. Buckets live in process memory by default; WithRateStore swaps
// them for shared windowed counters so multiple instances enforce one budget.
type Admission struct {
	cfg     AdmissionConfig
	decider Decider
	rates   RateStore
	log     *zap.Logger

	mu      sync.Mutex
	general map[string]*bucket
	write   map[string]*bucket
	clock   func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// AdmissionOption customises the limiter.
type AdmissionOption func(*Admission)

// WithRateStore backs the limiter with a shared counter store. A nil store
// is ignored and the in-process buckets stay in charge.
func WithRateStore(rates RateStore) AdmissionOption {
	return func(a *Admission) {
		if rates != nil {
			a.rates = rates
		}
	}
}

// NewAdmission constructs the limiter. When the in-process buckets are in
// use it also starts the idle-bucket sweeper; Close stops it.
func NewAdmission(cfg AdmissionConfig, decider Decider, opts ...AdmissionOption) *Admission {
	a := &Admission{
		cfg:     cfg,
		decider: decider,
		log:     logger.WithModule("admission"),
		general: make(map[string]*bucket),
		write:   make(map[string]*bucket),
		clock:   time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.rates == nil {
		go a.cleanupLoop(time.Minute)
	}
	return a
}

// Close stops the idle-bucket sweeper. Safe to call more than once.
func (a *Admission) Close() {
	if a == nil {
		return
	}
	a.closeOnce.Do(func() { close(a.stop) })
}

func (a *Admission) cleanupLoop(every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-tick.C:
		}

		cutoff := a.clock().Add(-10 * time.Minute)
		a.mu.Lock()
		for key, b := range a.general {
			if b.lastSeen.Before(cutoff) {
				delete(a.general, key)
			}
		}
		for key, b := range a.write {
			if b.lastSeen.Before(cutoff) {
				delete(a.write, key)
			}
		}
		a.mu.Unlock()
	}
}

func (a *Admission) cost(class RouteClass) float64 {
	switch class {
	case ClassSearch:
		return a.cfg.SearchCost
	case ClassWrite:
		return a.cfg.WriteCost
	default:
		return a.cfg.ReadCost
	}
}

// take attempts to draw cost tokens from the client's bucket, refilling
// lazily from the elapsed time. On refusal it reports how long until the
// bucket holds enough tokens.
func take(b *bucket, cfg BucketConfig, cost float64, now time.Time) (bool, time.Duration) {
	elapsed := now.Sub(b.lastSeen).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * cfg.ratePerSecond()
		if b.tokens > cfg.Capacity {
			b.tokens = cfg.Capacity
		}
	}
	b.lastSeen = now

	if b.tokens >= cost {
		b.tokens -= cost
		return true, 0
	}

	rate := cfg.ratePerSecond()
	if rate <= 0 {
		return false, cfg.RefillInterval
	}
	deficit := cost - b.tokens
	return false, time.Duration(deficit / rate * float64(time.Second))
}

func (a *Admission) admit(clientIP string, class RouteClass) (bool, time.Duration) {
	now := a.clock()

	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.general[clientIP]
	if !ok {
		b = &bucket{tokens: a.cfg.General.Capacity, lastSeen: now}
		a.general[clientIP] = b
	}
	ok, retryAfter := take(b, a.cfg.General, a.cost(class), now)
	if !ok {
		return false, retryAfter
	}

	if class != ClassWrite {
		return true, 0
	}

	wb, found := a.write[clientIP]
	if !found {
		wb = &bucket{tokens: a.cfg.Write.Capacity, lastSeen: now}
		a.write[clientIP] = wb
	}
	return take(wb, a.cfg.Write, 1, now)
}

// admitShared enforces the same budgets against the shared RateStore,
// approximating each bucket as a fixed window of one refill interval.
func (a *Admission) admitShared(ctx context.Context, clientIP string, class RouteClass) (bool, time.Duration, error) {
	cost := int64(math.Ceil(a.cost(class)))

	count, retryAfter, err := a.rates.Increment(ctx, "admission:general:"+clientIP, cost, a.cfg.General.RefillInterval)
	if err != nil {
		return false, 0, err
	}
	if float64(count) > a.cfg.General.Capacity {
		return false, retryAfter, nil
	}

	if class != ClassWrite {
		return true, 0, nil
	}

	count, retryAfter, err = a.rates.Increment(ctx, "admission:write:"+clientIP, 1, a.cfg.Write.RefillInterval)
	if err != nil {
		return false, 0, err
	}
	if float64(count) > a.cfg.Write.Capacity {
		return false, retryAfter, nil
	}
	return true, 0, nil
}

// Gate returns a middleware enforcing admission control for one route class.
// Any internal failure evaluating the decision fails open: availability wins
// over strict enforcement during partial outages.
func (a *Admission) Gate(class RouteClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a == nil || class == ClassBatch {
			c.Next()
			return
		}

		clientIP := c.ClientIP()

		if class == ClassWrite && a.decider != nil {
			decision, err := a.decider.Decide(requestContext(c), clientIP, class)
			if err != nil {
				metrics.AdmissionDecisions.WithLabelValues(string(class), "fail_open").Inc()
				a.log.Warn("decider unavailable, failing open",
					zap.String("client_ip", clientIP), zap.Error(err))
			} else {
				switch decision {
				case DecisionDeny:
					metrics.AdmissionDecisions.WithLabelValues(string(class), "forbidden").Inc()
					response.Error(c, appErrors.ErrForbidden)
					c.Abort()
					return
				case DecisionRateLimited:
					metrics.AdmissionDecisions.WithLabelValues(string(class), "rate_limited").Inc()
					response.Error(c, appErrors.NewRateLimited(a.cfg.Write.RefillInterval))
					c.Abort()
					return
				}
			}
		}

		var (
			allowed    bool
			retryAfter time.Duration
		)
		if a.rates != nil {
			var err error
			allowed, retryAfter, err = a.admitShared(requestContext(c), clientIP, class)
			if err != nil {
				metrics.AdmissionDecisions.WithLabelValues(string(class), "fail_open").Inc()
				a.log.Warn("rate store unavailable, failing open",
					zap.String("client_ip", clientIP), zap.Error(err))
				allowed = true
			}
		} else {
			allowed, retryAfter = a.admit(clientIP, class)
		}
		if !allowed {
			metrics.AdmissionDecisions.WithLabelValues(string(class), "rate_limited").Inc()
			response.Error(c, appErrors.NewRateLimited(retryAfter))
			c.Abort()
			return
		}

		metrics.AdmissionDecisions.WithLabelValues(string(class), "allow").Inc()
		c.Next()
	}
}

func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}
