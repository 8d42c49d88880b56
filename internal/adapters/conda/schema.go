package conda

// solveRequest is the JSON document sent to the solver CLI on stdin.
type solveRequest struct {
	Platform string           `json:"platform"`
	Channels []channelRequest `json:"channels"`
	Specs    []specRequest    `json:"specs"`
}

type channelRequest struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

type specRequest struct {
	Name       string `json:"name"`
	Constraint string `json:"constraint,omitempty"`
	Build      string `json:"build,omitempty"`
	Channel    string `json:"channel,omitempty"`
}

// solveResponse is the JSON document the solver CLI prints on stdout.
// On an unsatisfiable request the solver exits non-zero and prints a
// solveFailure instead.
type solveResponse struct {
	Packages []packageResponse `json:"packages"`
}

type packageResponse struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Build   string   `json:"build,omitempty"`
	Sha256  string   `json:"sha256,omitempty"`
	URL     string   `json:"url,omitempty"`
	Depends []string `json:"depends,omitempty"`
}

type solveFailure struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

const failureUnsatisfiable = "unsatisfiable"
