package autosingleton

import (
	"context"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Container phases.
const (
	PhaseStopped = "stopped"
	PhaseRunning = "running"
)

const (
	eventStart = "start"
	eventStop  = "stop"
)

func newPhaseMachine(logger *zap.Logger) *fsm.FSM {
	return fsm.NewFSM(
		PhaseStopped,
		fsm.Events{
			{Name: eventStart, Src: []string{PhaseStopped}, Dst: PhaseRunning},
			{Name: eventStop, Src: []string{PhaseRunning}, Dst: PhaseStopped},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("Singleton container phase changed",
					zap.String("from", e.Src), zap.String("to", e.Dst))
			},
		},
	)
}
