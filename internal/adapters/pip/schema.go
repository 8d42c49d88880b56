package pip

// resolveRequest is the JSON document sent to the resolver CLI on stdin.
type resolveRequest struct {
	Platform     string               `json:"platform"`
	Interpreter  interpreterRequest   `json:"interpreter"`
	Requirements []requirementRequest `json:"requirements"`
}

type interpreterRequest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type requirementRequest struct {
	Name       string `json:"name"`
	Constraint string `json:"constraint,omitempty"`
}

// resolveResponse is the JSON document the resolver CLI prints on stdout.
type resolveResponse struct {
	Packages []packageResponse `json:"packages"`
}

type packageResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Sha256  string `json:"sha256,omitempty"`
	URL     string `json:"url,omitempty"`

	// RequiresNative lists native capabilities the distribution needs at
	// runtime, as declared in its metadata.
	RequiresNative []string `json:"requires_native,omitempty"`
}

type resolveFailure struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

const failureUnsatisfiable = "unsatisfiable"
