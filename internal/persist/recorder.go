package persist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/l1jgo/framecore/internal/core/system"
	"go.uber.org/zap"
)

// SampleSink stores batches of samples. RunRepo is the production sink.
type SampleSink interface {
	AppendSamples(ctx context.Context, runID uuid.UUID, samples []Sample) error
}

// Recorder moves samples off the game loop. Record never blocks: when the
// queue is full the sample is dropped and counted. A writer goroutine
// flushes batches of flushEvery samples, or whatever is queued once per
// interval.
type Recorder struct {
	sink       SampleSink
	runID      uuid.UUID
	log        *zap.Logger
	flushEvery int
	interval   time.Duration

	queue   chan Sample
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
	written atomic.Uint64
}

func NewRecorder(sink SampleSink, runID uuid.UUID, queueSize, flushEvery int, log *zap.Logger) *Recorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	if flushEvery <= 0 {
		flushEvery = 1
	}
	r := &Recorder{
		sink:       sink,
		runID:      runID,
		log:        log,
		flushEvery: flushEvery,
		interval:   time.Second,
		queue:      make(chan Sample, queueSize),
		done:       make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues s for writing.
func (r *Recorder) Record(s Sample) {
	select {
	case r.queue <- s:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns the number of samples lost to a full queue.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Written returns the number of samples the sink accepted.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Close stops accepting samples, flushes what is queued and waits for the
// writer, or until ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.once.Do(func() { close(r.queue) })
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	batch := make([]Sample, 0, r.flushEvery)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.sink.AppendSamples(ctx, r.runID, batch); err != nil {
			r.log.Error("sample flush failed", zap.Int("samples", len(batch)), zap.Error(err))
		} else {
			r.written.Add(uint64(len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case s, ok := <-r.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, s)
			if len(batch) >= r.flushEvery {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// RecordSystem samples the engine after each step.
type RecordSystem struct {
	rec    *Recorder
	sample func() Sample
}

// NewRecordSystem records sample() at the persist phase of every step.
func NewRecordSystem(rec *Recorder, sample func() Sample) *RecordSystem {
	return &RecordSystem{rec: rec, sample: sample}
}

func (s *RecordSystem) Phase() system.Phase { return system.PhasePersist }

func (s *RecordSystem) Update(_ time.Duration) {
	s.rec.Record(s.sample())
}
