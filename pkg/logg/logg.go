package logg

// Shared zap field names so log lines stay greppable across layers.
const (
	Layer        = "layer"
	Operation    = "op"
	URL          = "url"
	Selector     = "selector"
	TicketID     = "ticket_id"
	AssessmentID = "assessment_id"
	Action       = "action"
	State        = "state"
	Step         = "step"
	Field        = "field"
	Keyword      = "keyword"
	Username     = "username"
	Status       = "status"
	Attempt      = "attempt"
)
