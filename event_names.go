package sqlagent

// Event name constants returned by Event.EventName.
//
// Names follow the pattern "namespace:category:timing"; timing is omitted for
// single events.
//
//	sqlagent:run:started     // a run began
//	sqlagent:tool:observed   // a tool produced its text result
//	sqlagent:rate_limit:retry
const (
	// Run lifecycle
	EventNameRunStarted  = "sqlagent:run:started"
	EventNameRunFinished = "sqlagent:run:finished"

	// Model output
	EventNameModelResponse = "sqlagent:model:response"
	EventNameModelUsage    = "sqlagent:model:usage"
	EventNameModelError    = "sqlagent:model:error"
	EventNameThought       = "sqlagent:thought"
	EventNameParseError    = "sqlagent:parse_error"

	// Tool calls
	EventNameToolAction      = "sqlagent:tool:action"
	EventNameToolObservation = "sqlagent:tool:observed"

	// Request pacing
	EventNamePacingWait     = "sqlagent:rate_limit:pacing"
	EventNameRateLimitRetry = "sqlagent:rate_limit:retry"
)
