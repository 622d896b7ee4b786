// Package orchestrator wraps one or more translation backends behind a single
// translator.Backend that adds per-attempt timeouts, bounded retries with
// linear backoff, client-side rate limiting and ordered fallback.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/translator"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// ErrAllFailed wraps the per-attempt errors once every backend is exhausted.
var ErrAllFailed = errors.New("all backends failed")

type OrchestratorConfig struct {
	// Timeout bounds a single attempt. Zero means no per-attempt limit.
	Timeout     time.Duration
	MaxAttempts int
	// RetryDelay is multiplied by the attempt number before each retry.
	RetryDelay time.Duration
	// RequestsPerMinute throttles upstream calls across all backends.
	// Zero disables throttling.
	RequestsPerMinute int
	Log               func(msg string)
}

type Orchestrator struct {
	services []translator.Backend
	config   OrchestratorConfig
	limiter  *rate.Limiter
}

func New(services []translator.Backend, config OrchestratorConfig) *Orchestrator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.RetryDelay < 0 {
		config.RetryDelay = 0
	}
	o := &Orchestrator{
		services: services,
		config:   config,
	}
	if config.RequestsPerMinute > 0 {
		o.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1)
	}
	return o
}

func (o *Orchestrator) Name() string {
	names := make([]string, len(o.services))
	for i, svc := range o.services {
		names[i] = svc.Name()
	}
	return strings.Join(names, ">")
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.config.Log != nil {
		o.config.Log(fmt.Sprintf(format, args...))
	}
}

// Translate tries each backend in order, retrying each up to MaxAttempts
// times, and returns the first successful result. On exhaustion the last
// result is returned together with an error wrapping ErrAllFailed.
func (o *Orchestrator) Translate(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	if len(o.services) == 0 {
		return &translator.ServiceResult{Error: "no backends configured"}, fmt.Errorf("%w: no backends configured", ErrAllFailed)
	}

	var (
		last *translator.ServiceResult
		errs []error
	)
	for _, svc := range o.services {
		for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return o.failed(svc, last, err), err
			}
			if attempt > 1 {
				delay := o.config.RetryDelay * time.Duration(attempt-1)
				o.logf("%s: retrying in %s (attempt %d/%d)", svc.Name(), delay, attempt, o.config.MaxAttempts)
				if err := sleep(ctx, delay); err != nil {
					return o.failed(svc, last, err), err
				}
			}
			if o.limiter != nil {
				if err := o.limiter.Wait(ctx); err != nil {
					return o.failed(svc, last, err), err
				}
			}

			res, err := o.attempt(ctx, svc, req)
			if err == nil && res.Succeeded() {
				return res, nil
			}
			if err == nil {
				err = fmt.Errorf("%s: %s", svc.Name(), res.Error)
			} else {
				err = fmt.Errorf("%s: %w", svc.Name(), err)
			}
			errs = append(errs, err)
			last = res
			o.logf("%s: attempt %d failed: %v", svc.Name(), attempt, err)

			// The caller gave up; further attempts cannot help.
			if ctx.Err() != nil {
				return o.failed(svc, last, ctx.Err()), ctx.Err()
			}
		}
		o.logf("%s: exhausted %d attempts, falling back", svc.Name(), o.config.MaxAttempts)
	}

	err := fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
	return o.failed(o.services[len(o.services)-1], last, err), err
}

func (o *Orchestrator) attempt(ctx context.Context, svc translator.Backend, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}
	res, err := svc.Translate(ctx, req)
	if res == nil {
		res = &translator.ServiceResult{ServiceName: svc.Name()}
		if err != nil {
			res.Error = err.Error()
		}
	}
	return res, err
}

func (o *Orchestrator) failed(svc translator.Backend, last *translator.ServiceResult, err error) *translator.ServiceResult {
	if last == nil {
		last = &translator.ServiceResult{ServiceName: svc.Name()}
	}
	if last.Error == "" {
		last.Error = err.Error()
	}
	return last
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Size measures text in the primary backend's units when it reports them,
// otherwise in runes.
func (o *Orchestrator) Size(text string) int {
	if len(o.services) > 0 {
		if s, ok := o.services[0].(translator.Sizer); ok {
			return s.Size(text)
		}
	}
	return utf8.RuneCountInString(text)
}

// IsAvailable succeeds when at least one backend is reachable.
func (o *Orchestrator) IsAvailable(ctx context.Context) error {
	if len(o.services) == 0 {
		return fmt.Errorf("%w: no backends configured", ErrAllFailed)
	}
	var errs []error
	for _, p := range o.Probe(ctx) {
		if p.Err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Service, p.Err))
	}
	return fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
}

type Availability struct {
	Service string
	Err     error
	Latency time.Duration
}

// Probe checks every backend concurrently and reports in configured order.
func (o *Orchestrator) Probe(ctx context.Context) []Availability {
	out := make([]Availability, len(o.services))

	var wg sync.WaitGroup
	for i, svc := range o.services {
		wg.Add(1)
		go func(index int, service translator.Backend) {
			defer wg.Done()

			probeCtx := ctx
			if o.config.Timeout > 0 {
				var cancel context.CancelFunc
				probeCtx, cancel = context.WithTimeout(ctx, o.config.Timeout)
				defer cancel()
			}

			start := time.Now()
			err := service.IsAvailable(probeCtx)
			out[index] = Availability{Service: service.Name(), Err: err, Latency: time.Since(start)}
		}(i, svc)
	}
	wg.Wait()

	return out
}
