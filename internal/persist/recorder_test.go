package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/l1jgo/framecore/internal/core/system"
	"go.uber.org/zap/zaptest"
)

type memorySink struct {
	mu      sync.Mutex
	batches [][]Sample
	runIDs  []uuid.UUID
	fail    error
	block   chan struct{}
}

func (s *memorySink) AppendSamples(_ context.Context, runID uuid.UUID, samples []Sample) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.batches = append(s.batches, append([]Sample(nil), samples...))
	s.runIDs = append(s.runIDs, runID)
	return nil
}

func (s *memorySink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func TestRecorderBatches(t *testing.T) {
	sink := &memorySink{}
	id := uuid.New()
	rec := NewRecorder(sink, id, 64, 4, zaptest.NewLogger(t))
	for i := 1; i <= 10; i++ {
		rec.Record(Sample{Step: uint64(i), Scene: "title"})
	}
	if err := rec.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := sink.total(); got != 10 {
		t.Fatalf("written = %d, want 10", got)
	}
	if rec.Written() != 10 || rec.Dropped() != 0 {
		t.Fatalf("written=%d dropped=%d", rec.Written(), rec.Dropped())
	}
	var step uint64
	for _, b := range sink.batches {
		if len(b) > 4 {
			t.Fatalf("batch of %d exceeds flush size", len(b))
		}
		for _, s := range b {
			step++
			if s.Step != step {
				t.Fatalf("sample %d out of order", s.Step)
			}
		}
	}
	for _, got := range sink.runIDs {
		if got != id {
			t.Fatal("wrong run id")
		}
	}
}

func TestRecorderDropsWhenFull(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	rec := NewRecorder(sink, uuid.New(), 2, 1, zaptest.NewLogger(t))

	// The writer takes the first sample and blocks in the sink; two more
	// fill the queue; the rest are dropped.
	rec.Record(Sample{Step: 1})
	deadline := time.Now().Add(2 * time.Second)
	for len(rec.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	for i := 2; i <= 6; i++ {
		rec.Record(Sample{Step: uint64(i)})
	}
	if rec.Dropped() != 3 {
		t.Fatalf("dropped = %d, want 3", rec.Dropped())
	}
	close(sink.block)
	if err := rec.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sink.total() != 3 {
		t.Fatalf("written = %d, want 3", sink.total())
	}
}

func TestRecorderSinkError(t *testing.T) {
	sink := &memorySink{fail: errors.New("db down")}
	rec := NewRecorder(sink, uuid.New(), 8, 2, zaptest.NewLogger(t))
	rec.Record(Sample{Step: 1})
	rec.Record(Sample{Step: 2})
	if err := rec.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rec.Written() != 0 {
		t.Fatal("failed batch counted as written")
	}
}

func TestRecordSystem(t *testing.T) {
	sink := &memorySink{}
	rec := NewRecorder(sink, uuid.New(), 8, 8, zaptest.NewLogger(t))
	step := uint64(0)
	sys := NewRecordSystem(rec, func() Sample {
		step++
		return Sample{Step: step}
	})
	if sys.Phase() != system.PhasePersist {
		t.Fatalf("phase = %s", sys.Phase())
	}
	sys.Update(time.Second / 60)
	sys.Update(time.Second / 60)
	if err := rec.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sink.total() != 2 {
		t.Fatalf("written = %d", sink.total())
	}
}

func TestMillis(t *testing.T) {
	if got := millis(1500 * time.Microsecond); got != 1.5 {
		t.Fatalf("millis = %v", got)
	}
}
