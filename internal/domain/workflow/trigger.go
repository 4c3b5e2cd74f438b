package workflow

// Trigger is an event fired against a StateMachine
type Trigger string

// TriggerGenerate asks for the contract document to be built
const TriggerGenerate Trigger = "GENERATE"

func (t Trigger) String() string {
	return string(t)
}
