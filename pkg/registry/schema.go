// pkg/registry/schema.go
package registry

// ActivityRegistry is the catalogue of job types this service answers, shared with process modellers.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID                   string `json:"id"`
	DisplayName          string `json:"displayName"`
	Description          string `json:"description"`
	Category             string `json:"category"`
	Version              string `json:"version"`
	TaskType             string `json:"taskType"`
	ImplementationStatus string `json:"implementationStatus"`

	// Surface names the ranking surface whose weights the worker uses; empty for non-ranking workers.
	Surface      string                 `json:"surface,omitempty"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`
	ErrorCodes   []string               `json:"errorCodes"`
	Timeout      string                 `json:"timeout"`
	Retries      int                    `json:"retries"`
	Tags         []string               `json:"tags"`
}
