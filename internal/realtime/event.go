package realtime

// Event is one message fanned out to listeners of a channel. The execution
// engine subscribes to calculation events to pick up new PENDING records.
type Event struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Data    any    `json:"data"`
}

const (
	EventCalculationScheduled = "calculation.scheduled"
	EventJobRecordCompleted   = "job_record.completed"
	EventJobRecordFailed      = "job_record.failed"
)

// ChannelCalculations carries every event above.
const ChannelCalculations = "calculations"
