package app

// Tracker receives fire-and-forget telemetry about the evaluation flow.
type Tracker interface {
	Track(event string, props map[string]any)
}

type nopTracker struct{}

func (nopTracker) Track(string, map[string]any) {}

// Telemetry event names.
const (
	EventStarted           = "evaluation_started"
	EventPropertyInfoSaved = "property_info_saved"
	EventAnswered          = "question_answered"
	EventNext              = "question_next"
	EventPrevious          = "question_previous"
	EventSkipped           = "question_skipped"
	EventBack              = "evaluation_back"
	EventRestarted         = "evaluation_restarted"
	EventResumed           = "evaluation_resumed"
	EventStartFresh        = "evaluation_start_fresh"
	EventCompleted         = "evaluation_completed"
	EventSaveSucceeded     = "evaluation_save_succeeded"
	EventSaveFailed        = "evaluation_save_failed"
)
