package lockscreen

// State is the injector's position in the injection lifecycle.
type State string

const (
	StateIdle        State = "idle"
	StateTranscoding State = "transcoding"
	StateInjecting   State = "injecting"
	StateActive      State = "active"
	StateFailed      State = "failed"
)

// Status is a snapshot of the injector state. ID is set for active, Reason
// for failed.
type Status struct {
	State    State
	ID       string
	Reason   string
	Degraded bool
}

func (s Status) String() string {
	switch s.State {
	case StateActive:
		if s.Degraded {
			return "active(" + s.ID + ", degraded)"
		}
		return "active(" + s.ID + ")"
	case StateFailed:
		return "failed(" + s.Reason + ")"
	default:
		return string(s.State)
	}
}

// Status returns the current state. It does not wait for a running operation.
func (i *Injector) Status() Status {
	i.stateMu.RLock()
	defer i.stateMu.RUnlock()
	return i.status
}

func (i *Injector) setStatus(s Status) {
	i.stateMu.Lock()
	i.status = s
	i.stateMu.Unlock()

	if i.onStatus != nil {
		i.onStatus(s)
	}
}

// resetIfActive returns to idle when id is the active injection.
func (i *Injector) resetIfActive(id string) {
	i.stateMu.RLock()
	current := i.status
	i.stateMu.RUnlock()

	if current.State == StateActive && current.ID == id {
		i.setStatus(Status{State: StateIdle})
	}
}
