package interview

import (
	"fmt"

	"github.com/futig/interview-emotion/internal/entity"
)

// trigger is an input of the recording cycle state machine
type trigger string

const (
	triggerStart         trigger = "start"          // user pressed Start
	triggerCountdownDone trigger = "countdown_done" // countdown reached its end
	triggerStop          trigger = "stop"           // user pressed End
	triggerAdvance       trigger = "advance"        // upload resolved, more questions left
	triggerFinish        trigger = "finish"         // upload resolved on the last question
	triggerAbort         trigger = "abort"          // recorders could not be started
)

var transitions = map[entity.Phase]map[trigger]entity.Phase{
	entity.PhaseIdle: {
		triggerStart: entity.PhaseCountdown,
	},
	entity.PhaseCountdown: {
		triggerCountdownDone: entity.PhaseRecording,
		triggerAbort:         entity.PhaseIdle,
	},
	entity.PhaseRecording: {
		triggerStop:  entity.PhaseFinalizing,
		triggerAbort: entity.PhaseIdle,
	},
	entity.PhaseFinalizing: {
		triggerAdvance: entity.PhaseIdle,
		triggerFinish:  entity.PhaseDone,
	},
	entity.PhaseDone: {},
}

// nextPhase returns the phase reached from p on t, or a domain error
// describing why t is not accepted in p.
func nextPhase(p entity.Phase, t trigger) (entity.Phase, error) {
	next, ok := transitions[p][t]
	if ok {
		return next, nil
	}

	switch t {
	case triggerStart:
		if p == entity.PhaseDone {
			return p, entity.ErrSessionFinished
		}
		return p, fmt.Errorf("%w: phase %s", entity.ErrAlreadyRecording, p)
	case triggerStop:
		if p == entity.PhaseDone {
			return p, entity.ErrSessionFinished
		}
		return p, fmt.Errorf("%w: phase %s", entity.ErrNotRecording, p)
	}
	return p, fmt.Errorf("%w: %s on %s", entity.ErrInvalidPhase, t, p)
}
