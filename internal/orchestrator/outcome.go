package orchestrator

import "fmt"

// Status is how an instruction cycle ended.
type Status int

const (
	// Rejected means the instruction was empty and nothing happened.
	Rejected Status = iota
	// Completed means the last command succeeded and no more were requested.
	Completed
	// StoppedByModel means the model ran the stop sentinel.
	StoppedByModel
	// Denied means the execution limit was reached.
	Denied
	// Declined means the user refused a command.
	Declined
	// Failed means the backend or the reply protocol failed.
	Failed
	// Cancelled means the user interrupted the cycle.
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Rejected:
		return "rejected"
	case Completed:
		return "completed"
	case StoppedByModel:
		return "stopped_by_model"
	case Denied:
		return "denied"
	case Declined:
		return "declined"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome reports how Run ended.
type Outcome struct {
	Status Status
	// Executed is the number of commands run during the cycle.
	Executed int
	// Remark is the model's final words when it stopped itself.
	Remark string
	// Err is set for Failed outcomes.
	Err error
}
