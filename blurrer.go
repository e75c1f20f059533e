package avredact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/google/uuid"
	"github.com/xaionaro-go/avredact/compositor"
	"github.com/xaionaro-go/avredact/config"
	"github.com/xaionaro-go/avredact/detector"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// Blurrer runs redaction jobs, one at a time.
type Blurrer struct {
	Config   config.Config
	Detector detector.Detector
	Deps     Deps

	runLocker   xsync.Mutex
	stateLocker xsync.Mutex
	state       State
	abort       atomic.Bool
}

func New(
	cfg config.Config,
	d detector.Detector,
	deps Deps,
) (*Blurrer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := compositor.NewFrameBlurrer(cfg.BlurKind); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	if d == nil {
		return nil, fmt.Errorf("the detector is not set")
	}
	deps = deps.withDefaults()
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return &Blurrer{
		Config:   cfg,
		Detector: d,
		Deps:     deps,
		state:    StateIdle,
	}, nil
}

func (b *Blurrer) String() string {
	return fmt.Sprintf("Blurrer(%s)", b.Detector)
}

// Abort asks the running job to stop. The batch in flight is completed,
// then the job ends in StateAborted without producing the output.
func (b *Blurrer) Abort() {
	b.abort.Store(true)
}

func (b *Blurrer) IsAborted() bool {
	return b.abort.Load()
}

func (b *Blurrer) State() State {
	ctx := xsync.WithNoLogging(context.TODO(), true)
	return xsync.DoR1(ctx, &b.stateLocker, func() State {
		return b.state
	})
}

func (b *Blurrer) setState(ctx context.Context, state State) {
	logger.Debugf(ctx, "state: %s", state)
	b.stateLocker.Do(xsync.WithNoLogging(ctx, true), func() {
		b.state = state
	})
}

// checkpoint is called between batches; it returns ErrAborted if the job
// must not start another batch.
func (b *Blurrer) checkpoint(ctx context.Context) error {
	if b.IsAborted() {
		return ErrAborted
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}
	return nil
}

// Run processes the job. Errors are never returned or panicked with, they
// are reported in the Result.
func (b *Blurrer) Run(
	ctx context.Context,
	job Job,
) (_ret Result) {
	startedAt := time.Now()
	jobID := uuid.New().String()
	ctx = belt.WithField(ctx, "job_id", jobID)
	logger.Debugf(ctx, "Run: %s", job)
	defer func() { logger.Debugf(ctx, "/Run: %s", _ret) }()

	result := &Result{JobID: jobID, State: StateIdle}
	if !b.runLocker.ManualTryLock(ctx) {
		result.State = StateFailed
		result.Err = fmt.Errorf("%s is already running a job", b)
		return *result
	}
	defer b.runLocker.ManualUnlock(ctx)

	b.abort.Store(false)
	b.setState(ctx, StateIdle)
	err := b.run(ctx, job, result)
	switch {
	case err == nil:
		result.State = StateDone
		result.Success = true
	case errors.Is(err, ErrAborted):
		logger.Infof(ctx, "the job %s was aborted", job)
		result.State = StateAborted
		result.Err = err
	default:
		logger.Errorf(ctx, "the job %s failed: %v", job, err)
		result.State = StateFailed
		result.Err = err
	}
	b.setState(ctx, result.State)
	result.Elapsed = time.Since(startedAt)
	return *result
}

func (b *Blurrer) run(
	ctx context.Context,
	job Job,
	result *Result,
) (_err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		errmon.ObserveRecoverCtx(ctx, r)
		_err = fmt.Errorf("panic: %v", r)
	}()

	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}
	if r, ok := b.Detector.(detector.Rewinder); ok {
		r.Rewind(ctx)
	}

	b.setState(ctx, StateDetecting)
	table, meta, err := b.detect(ctx, job.InputPath, result)
	if err != nil {
		return ErrStage{Stage: StateDetecting, Err: err}
	}

	b.setState(ctx, StateTracking)
	tracked, err := b.track(ctx, table, meta, result)
	if err != nil {
		return ErrStage{Stage: StateTracking, Err: err}
	}
	if b.Config.ExportJSON {
		b.export(ctx, job, tracked, result)
	}

	tempPath := job.TempPath()
	b.setState(ctx, StateRendering)
	err = b.render(ctx, job.InputPath, tempPath, tracked, result)
	if err == nil {
		err = b.checkpoint(ctx)
	}
	if err != nil {
		b.discard(ctx, tempPath, result)
		if errors.Is(err, ErrAborted) {
			return err
		}
		return ErrStage{Stage: StateRendering, Err: err}
	}

	b.setState(ctx, StateMuxing)
	if err := b.mux(ctx, job, meta, tempPath, result); err != nil {
		b.discard(ctx, tempPath, result)
		if errors.Is(err, ErrAborted) {
			return err
		}
		return ErrStage{Stage: StateMuxing, Err: err}
	}
	return nil
}
