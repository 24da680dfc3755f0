package agentsdk

import "sync"

// sessionState enumerates the Session Runtime's lifecycle, matching the
// external-interface state machine: a session moves strictly forward except
// for the Ready <-> Interrupting cycle, and any state can fall to Closed on
// a transport failure.
type sessionState int

const (
	stateNotStarted sessionState = iota
	stateConnecting
	stateInitializing
	stateReady
	stateInterrupting
	stateClosing
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateNotStarted:
		return "NotStarted"
	case stateConnecting:
		return "Connecting"
	case stateInitializing:
		return "Initializing"
	case stateReady:
		return "Ready"
	case stateInterrupting:
		return "Interrupting"
	case stateClosing:
		return "Closing"
	case stateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// allowedTransitions is the state machine's transition table. Closed is
// reachable from every state (a transport failure can happen at any time):
// transition permits it before consulting this table, so the Closed entries
// listed here are not what allows it.
var allowedTransitions = map[sessionState][]sessionState{
	stateNotStarted:   {stateConnecting},
	stateConnecting:   {stateInitializing, stateClosed},
	stateInitializing: {stateReady, stateClosed},
	stateReady:        {stateInterrupting, stateClosing, stateClosed},
	stateInterrupting: {stateReady, stateClosing, stateClosed},
	stateClosing:      {stateClosed},
	stateClosed:       {},
}

// stateMachine guards sessionState transitions with a single mutex, per the
// Session Runtime's "single mutex-guarded transition function" design.
type stateMachine struct {
	mu    sync.Mutex
	state sessionState
}

func newStateMachine() *stateMachine {
	return &stateMachine{state: stateNotStarted}
}

func (m *stateMachine) current() sessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// transition moves to next if the table permits it (or if next is Closed,
// which is always permitted), returning an InvalidStateError otherwise.
func (m *stateMachine) transition(next sessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if next == stateClosed {
		m.state = stateClosed
		return nil
	}

	for _, allowed := range allowedTransitions[m.state] {
		if allowed == next {
			m.state = next
			return nil
		}
	}
	return &InvalidStateError{From: m.state.String(), To: next.String()}
}
