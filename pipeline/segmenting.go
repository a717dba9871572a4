package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/skillsenselab/clipwise/logger"
	"github.com/skillsenselab/clipwise/resilience"
	"github.com/skillsenselab/clipwise/segment"
)

// resilienceGate combines the oracle bulkhead with the aggregate rate
// limiter. The bulkhead bounds in-flight calls; the limiter keeps the call
// rate under the oracle's quota even when windows are short.
type resilienceGate struct {
	bulkhead *resilience.Bulkhead
	limiter  *resilience.RateLimiter
}

func newResilienceGate(workers int, rate float64) *resilienceGate {
	return &resilienceGate{
		bulkhead: resilience.NewBulkhead("oracle", workers),
		limiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  "oracle",
			Rate:  rate,
			Burst: workers,
		}),
	}
}

type windowResult struct {
	index int
	raws  []segment.RawSegment
	err   error
}

// segmentWindows fans every window out to the oracle behind the resilience
// gate and collects raw segments plus per-window failures. A failed window is
// recorded and skipped; callers decide whether zero successes is fatal.
// Window payloads are released as soon as their result lands.
func (o *Orchestrator) segmentWindows(ctx context.Context, windows []segment.Window, totalDurationSec float64, log *logger.Logger) ([]segment.RawSegment, []segment.WindowFailure) {
	results := make(chan windowResult)

	var wg sync.WaitGroup
	for i := range windows {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			// Oracle calls are counted inside the segmenter's attempt hook,
			// where retries are visible.
			raws, err := resilience.ExecuteWithResult(o.oracleGate.bulkhead, ctx, func() ([]segment.RawSegment, error) {
				if err := o.oracleGate.limiter.Wait(ctx); err != nil {
					return nil, err
				}
				return o.segmenter.Segment(ctx, idx, windows[idx], totalDurationSec)
			})
			results <- windowResult{index: idx, raws: raws, err: err}
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var raws []segment.RawSegment
	var failures []segment.WindowFailure
	for r := range results {
		w := &windows[r.index]
		if r.err != nil {
			failures = append(failures, segment.WindowFailure{
				Index: r.index,
				Start: w.Start,
				End:   w.End,
				Error: r.err.Error(),
			})
			log.Warn("window segmentation failed", map[string]interface{}{
				logger.FieldWindow: r.index,
				logger.FieldError:  r.err.Error(),
			})
		} else {
			raws = append(raws, r.raws...)
		}
		w.ReleasePayload()
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
	return raws, failures
}
