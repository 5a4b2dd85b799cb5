package supervisor

// Decision is the structured routing verdict of one supervisor call. At
// most one of Handoff/Reply drives the turn: a non-empty Handoff delegates
// Task to the named sub-agent, otherwise Reply goes straight to the user.
type Decision struct {
	Handoff string `json:"handoff"`
	Task    string `json:"task"`
	Reply   string `json:"reply"`
}
