package assess

import (
	"context"
	"sync"
	"time"

	"github.com/kr1s57/linkshield/internal/entity"
)

// fanOut invokes every adapter concurrently and collects a settled result
// for each one. A slow or hung adapter never blocks the others and never
// aborts the batch: its slot in the result set becomes a timeout failure.
// Results merge by provider id, so completion order does not matter.
func (s *Service) fanOut(ctx context.Context, target entity.Target, adapters []Adapter) map[string]entity.ProviderVerdict {
	results := make(map[string]entity.ProviderVerdict, len(adapters))

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, a := range adapters {
		wg.Add(1)
		go func(a Adapter) {
			defer wg.Done()
			v := s.invoke(ctx, a, target)
			mu.Lock()
			results[a.ID()] = v
			mu.Unlock()
		}(a)
	}

	wg.Wait()
	return results
}

// invoke races one adapter call against the per-call timer and the batch
// deadline. The underlying call cannot be interrupted if it ignores its
// context; a late result is simply discarded. The semaphore slot is held
// until the call actually returns, which bounds the leaked work.
func (s *Service) invoke(ctx context.Context, a Adapter, target entity.Target) entity.ProviderVerdict {
	start := time.Now()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		v := timeoutVerdict(a)
		v.Elapsed = time.Since(start)
		return v
	}

	ch := make(chan entity.ProviderVerdict, 1)
	go func() {
		defer s.sem.Release(1)
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.PerCallTimeout)
		defer cancel()
		ch <- a.Assess(callCtx, target)
	}()

	timer := time.NewTimer(s.cfg.PerCallTimeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v
	case <-timer.C:
		s.logger.Warn("provider timed out", "provider", a.ID(), "target", target.Raw)
	case <-ctx.Done():
		s.logger.Warn("batch deadline hit before provider settled", "provider", a.ID(), "target", target.Raw)
	}

	v := timeoutVerdict(a)
	v.Elapsed = time.Since(start)
	return v
}

func timeoutVerdict(a Adapter) entity.ProviderVerdict {
	return entity.ProviderVerdict{
		ProviderID:   a.ID(),
		ProviderName: a.Name(),
		Succeeded:    false,
		ErrorReason:  entity.ReasonTimeout,
		Flags:        []entity.Flag{},
	}
}
