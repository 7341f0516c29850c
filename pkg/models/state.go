package models

import (
	"fmt"
	"time"
)

// SubmissionState governs whether a submission may start and whether a result
// is displayable.
type SubmissionState int

const (
	StateNoInput SubmissionState = iota
	StateIdle
	StateSubmitting
	StateComplete
)

func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateComplete:
		return "complete"
	default:
		return "no_input"
	}
}

func (s SubmissionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SubmissionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "no_input":
		*s = StateNoInput
	case "idle":
		*s = StateIdle
	case "submitting":
		*s = StateSubmitting
	case "complete":
		*s = StateComplete
	default:
		return fmt.Errorf("unknown submission state %q", text)
	}
	return nil
}

// ResultInfo describes a live result handle for the rendering boundary.
type ResultInfo struct {
	HandleID    string    `json:"handle_id"`
	Address     string    `json:"address"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Format      string    `json:"format,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PipelineState is a point-in-time copy of the coordinator's state.
type PipelineState struct {
	State             SubmissionState `json:"state"`
	HasInput          bool            `json:"has_input"`
	InputName         string          `json:"input_name,omitempty"`
	InputMIMEType     string          `json:"input_mime_type,omitempty"`
	InputSize         int64           `json:"input_size,omitempty"`
	DisplayIdentifier string          `json:"display_identifier"`
	OutputName        string          `json:"output_name"`
	Submitting        bool            `json:"submitting"`
	Result            *ResultInfo     `json:"result,omitempty"`
	LastError         string          `json:"last_error,omitempty"`
}
