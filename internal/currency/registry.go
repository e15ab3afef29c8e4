// internal/currency/registry.go
package currency

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"fxwallet/internal/domain"
	"fxwallet/internal/metrics"
	"fxwallet/internal/util"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Lister fetches the full set of supported currency codes from the provider.
type Lister interface {
	ListCurrencies(ctx context.Context) (map[string]string, error)
}

// Store persists the registry between processes.
type Store interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Options configures a Registry.
type Options struct {
	CacheKey string
	TTL      time.Duration
	// Now replaces the wall clock in tests.
	Now func() time.Time
}

type snapshot struct {
	codes     map[string]string
	expiresAt time.Time
}

// Registry is the authoritative set of valid currency codes. Readers always
// see one complete set; a refresh swaps the whole set at once.
type Registry struct {
	lister  Lister
	store   Store
	key     string
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
	log     *logrus.Logger

	current atomic.Pointer[snapshot]
	flight  singleflight.Group
}

// NewRegistry creates an empty registry; the first validation loads it.
func NewRegistry(lister Lister, store Store, opts Options, m *metrics.Metrics, log *logrus.Logger) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		lister:  lister,
		store:   store,
		key:     opts.CacheKey,
		ttl:     opts.TTL,
		now:     opts.Now,
		metrics: m,
		log:     log,
	}
}

// IsValid reports whether code is a known currency. A registry that cannot be
// loaded knows no codes.
func (r *Registry) IsValid(ctx context.Context, code string) bool {
	snap, err := r.load(ctx)
	if err != nil {
		r.log.WithError(err).Warn("Currency registry unavailable")
		return false
	}
	_, ok := snap.codes[domain.NormalizeCurrency(code)]
	return ok
}

// ValidateAll fails on the first unknown code. Load failures are returned as is.
func (r *Registry) ValidateAll(ctx context.Context, codes ...string) error {
	snap, err := r.load(ctx)
	if err != nil {
		return err
	}
	for _, code := range codes {
		if _, ok := snap.codes[domain.NormalizeCurrency(code)]; !ok {
			return fmt.Errorf("%w: %q", util.ErrInvalidCurrency, code)
		}
	}
	return nil
}

// List returns a copy of the current code → label mapping.
func (r *Registry) List(ctx context.Context) (map[string]string, error) {
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(snap.codes))
	for code, label := range snap.codes {
		out[code] = label
	}
	return out, nil
}

// WarmUp loads the registry ahead of the first request.
func (r *Registry) WarmUp(ctx context.Context) error {
	_, err := r.load(ctx)
	return err
}

// Refresh replaces the whole set from the provider and persists it with the
// configured expiry. Concurrent calls share one provider request.
func (r *Registry) Refresh(ctx context.Context) (map[string]string, error) {
	v, err, _ := r.flight.Do("refresh", func() (interface{}, error) {
		return r.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot).codes, nil
}

func (r *Registry) fresh() *snapshot {
	snap := r.current.Load()
	if snap != nil && r.now().Before(snap.expiresAt) {
		return snap
	}
	return nil
}

// load returns a live snapshot, falling back to the cache store and then to
// the provider. Only one caller at a time walks the fallback chain.
func (r *Registry) load(ctx context.Context) (*snapshot, error) {
	if snap := r.fresh(); snap != nil {
		return snap, nil
	}

	v, err, _ := r.flight.Do("load", func() (interface{}, error) {
		if snap := r.fresh(); snap != nil {
			return snap, nil
		}
		ctx := context.WithoutCancel(ctx)
		if snap := r.fromStore(ctx); snap != nil {
			r.current.Store(snap)
			return snap, nil
		}
		return r.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot), nil
}

func (r *Registry) fromStore(ctx context.Context) *snapshot {
	var codes map[string]string
	found, err := r.store.GetJSON(ctx, r.key, &codes)
	if err != nil {
		r.log.WithError(err).Warn("Failed to read currency registry from cache")
		return nil
	}
	if !found || len(codes) == 0 {
		return nil
	}
	ttl, err := r.store.TTL(ctx, r.key)
	if err != nil || ttl <= 0 {
		return nil
	}
	return &snapshot{codes: normalize(codes), expiresAt: r.now().Add(ttl)}
}

func (r *Registry) refresh(ctx context.Context) (*snapshot, error) {
	codes, err := r.lister.ListCurrencies(ctx)
	r.metrics.RecordRegistryRefresh(err)
	if err != nil {
		return nil, fmt.Errorf("refresh currency registry: %w", err)
	}

	snap := &snapshot{codes: normalize(codes), expiresAt: r.now().Add(r.ttl)}
	if err := r.store.SetJSON(ctx, r.key, snap.codes, r.ttl); err != nil {
		r.log.WithError(err).Warn("Failed to persist currency registry")
	}
	r.current.Store(snap)
	r.log.WithField("currencies", len(snap.codes)).Info("Currency registry refreshed")
	return snap, nil
}

func normalize(codes map[string]string) map[string]string {
	out := make(map[string]string, len(codes))
	for code, label := range codes {
		out[domain.NormalizeCurrency(code)] = label
	}
	return out
}
