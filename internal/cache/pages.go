package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/studentaffairs/portal/internal/metrics"
)

// fillTimeout bounds a shared fill, which no longer follows the first
// caller's cancellation.
const fillTimeout = 15 * time.Second

// Pages is a read-through JSON cache keyed by presentation path. Concurrent
// misses for one key share a single fill. Store failures degrade to a fill
// and are never returned to the reader.
//
// Every Invalidate advances epoch. A fill started under an older epoch still
// answers its callers but never writes to the store, so data read before a
// mutation cannot outlive that mutation's invalidation.
type Pages struct {
	store Cache
	ttl   time.Duration
	group singleflight.Group

	mu    sync.RWMutex
	epoch uint64
}

func NewPages(store Cache, ttl time.Duration) *Pages {
	return &Pages{store: store, ttl: ttl}
}

// Fetch decodes the cached value for key into dst, calling fill on a miss.
func (p *Pages) Fetch(ctx context.Context, key string, dst any, fill func(ctx context.Context) (any, error)) error {
	logger := zerolog.Ctx(ctx)

	data, err := p.store.Get(ctx, key)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, dst); jsonErr == nil {
			metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
			return nil
		}
		logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case errors.Is(err, ErrCacheMiss):
	default:
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()

	epoch := p.currentEpoch()
	flight := p.group.DoChan(strconv.FormatUint(epoch, 10)+"|"+key, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()

		value, err := fill(fillCtx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		p.setIfCurrent(fillCtx, epoch, key, encoded)
		return encoded, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dst)
	}
}

func (p *Pages) currentEpoch() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.epoch
}

// setIfCurrent writes the entry unless an invalidation happened since the
// fill began. The read lock keeps Invalidate from advancing the epoch
// between the check and the write.
func (p *Pages) setIfCurrent(ctx context.Context, epoch uint64, key string, encoded []byte) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.epoch != epoch {
		zerolog.Ctx(ctx).Debug().Str("key", key).Msg("dropping fill superseded by invalidation")
		return
	}
	if err := p.store.Set(ctx, key, encoded, p.ttl); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Invalidate removes every entry under each prefix. All prefixes are
// attempted; the errors are joined.
func (p *Pages) Invalidate(ctx context.Context, prefixes ...string) error {
	p.mu.Lock()
	p.epoch++
	p.mu.Unlock()

	var errs []error
	for _, prefix := range prefixes {
		if err := p.store.DeleteByPrefix(ctx, prefix); err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", prefix, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		metrics.CacheInvalidationsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.CacheInvalidationsTotal.WithLabelValues("success").Inc()
	return nil
}
