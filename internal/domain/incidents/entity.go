package incidents

import "time"

// Phase of the pipeline where the model path failed
type Phase string

const (
	PhaseGenerate  Phase = "generate"
	PhaseNormalize Phase = "normalize"
	PhaseRepair    Phase = "repair"
)

// Incident records a model failure that was recovered locally or surfaced
// to the client, so silent fallbacks stay visible to operators.
type Incident struct {
	ID          int64     `json:"id"`
	Endpoint    string    `json:"endpoint"`
	Phase       Phase     `json:"phase"`
	Message     string    `json:"message"`
	Recovered   bool      `json:"recovered"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
