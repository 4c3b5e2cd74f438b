package workflow

// State is a stage of one contract generation attempt
type State string

const (
	// StateCollecting: form values are being gathered and may still change
	StateCollecting State = "COLLECTING"
	// StateSubmitted: the document was built; the attempt is closed
	StateSubmitted State = "SUBMITTED"
)

func (s State) String() string {
	return string(s)
}

// IsValid reports whether s is one of the declared states
func (s State) IsValid() bool {
	switch s {
	case StateCollecting, StateSubmitted:
		return true
	}
	return false
}

// IsTerminal reports whether no transition may leave s
func (s State) IsTerminal() bool {
	return s == StateSubmitted
}
