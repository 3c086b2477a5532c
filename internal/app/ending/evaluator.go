package ending

import (
	"context"
	"log"
	"time"

	"necroos/internal/app/ports"
	"necroos/internal/app/schedule"
	"necroos/internal/domain/haunting"
)

type Possession interface {
	Level() int
	Ending() haunting.Ending
	SessionElapsed() (time.Duration, bool)
	RecordEnding(ctx context.Context, ending haunting.Ending) bool
}

type MarkerStore interface {
	SaveMarker(ctx context.Context, m haunting.ConsumedMarker) error
	LoadMarker(ctx context.Context) (haunting.ConsumedMarker, bool)
	DeleteMarker(ctx context.Context)
}

// Evaluator decides when a session ends. Endings are write-once: after the
// first one, Check returns it without side effects.
type Evaluator struct {
	possession Possession
	markers    MarkerStore
	clock      ports.Clock
	scheduler  *schedule.Scheduler
	observers  []func(haunting.Ending)
}

func NewEvaluator(possession Possession, markers MarkerStore, clock ports.Clock, scheduler *schedule.Scheduler) *Evaluator {
	return &Evaluator{possession: possession, markers: markers, clock: clock, scheduler: scheduler}
}

// OnEndingReached registers fn to run once when an ending is recorded.
func (e *Evaluator) OnEndingReached(fn func(haunting.Ending)) {
	e.observers = append(e.observers, fn)
}

// StartPolling checks the ending rules every poll interval until one fires.
func (e *Evaluator) StartPolling() {
	if e.possession.Ending() != haunting.EndingNone {
		return
	}
	e.scheduler.Every(schedule.TaskEndingPoll, haunting.EndingPollInterval, func() {
		e.Check(context.Background())
	})
}

func (e *Evaluator) Check(ctx context.Context) haunting.Ending {
	if current := e.possession.Ending(); current != haunting.EndingNone {
		return current
	}
	elapsed, hasSession := e.possession.SessionElapsed()
	next := haunting.EvaluateEnding(e.possession.Level(), elapsed, hasSession)
	if next == haunting.EndingNone {
		return haunting.EndingNone
	}
	e.reach(ctx, next)
	return next
}

// BeforeTerminate leaves a consumed marker when the process dies at a high
// level with no ending.
func (e *Evaluator) BeforeTerminate(ctx context.Context) {
	level := e.possession.Level()
	if !haunting.QualifiesForConsumed(level, e.possession.Ending()) {
		return
	}
	marker := haunting.ConsumedMarker{Timestamp: e.clock.Now(), PossessionLevel: level}
	if err := e.markers.SaveMarker(ctx, marker); err != nil {
		log.Printf("[ending] save consumed marker failed: %v", err)
		return
	}
	log.Printf("[ending] consumed marker written at possession %d", level)
}

// ResolveConsumed turns a fresh marker into the consumed ending. Any marker
// found is removed.
func (e *Evaluator) ResolveConsumed(ctx context.Context) bool {
	marker, ok := e.markers.LoadMarker(ctx)
	if !ok {
		return false
	}
	e.markers.DeleteMarker(ctx)
	if !marker.Valid(e.clock.Now()) {
		log.Printf("[ending] discarded stale consumed marker from %s", marker.Timestamp.Format(time.RFC3339))
		return false
	}
	if e.possession.Ending() != haunting.EndingNone {
		return false
	}
	e.reach(ctx, haunting.EndingConsumed)
	return true
}

func (e *Evaluator) reach(ctx context.Context, ending haunting.Ending) {
	if !e.possession.RecordEnding(ctx, ending) {
		return
	}
	e.scheduler.Cancel(schedule.TaskEndingPoll)
	log.Printf("[ending] ending reached: %s", ending)
	for _, fn := range e.observers {
		fn(ending)
	}
}
