// Package audit captures an append-only trail of verification
// decisions. Events go to a store for operator queries and optionally
// to a Kafka topic for downstream consumers.
package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	RequestID      string    `json:"request_id,omitempty"`
	SubmissionID   string    `json:"submission_id"`
	Action         string    `json:"action"`
	Status         string    `json:"status,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	IDNumberMasked string    `json:"id_number_masked,omitempty"`
	FaceBackend    string    `json:"face_backend,omitempty"`
	ClientIP       string    `json:"client_ip,omitempty"`
	Device         string    `json:"device,omitempty"`
}

// Actions emitted by the verification flow.
const (
	ActionRegister  = "verification.register"
	ActionExtract   = "verification.extract"
	ActionDecision  = "verification.decision"
	ActionDuplicate = "verification.duplicate_hit"
)

// MaskIDNumber keeps only the last three digits for the audit trail.
func MaskIDNumber(idNumber string) string {
	if len(idNumber) <= 3 {
		return idNumber
	}
	masked := make([]byte, len(idNumber))
	for i := range masked {
		if i < len(idNumber)-3 {
			masked[i] = '*'
		} else {
			masked[i] = idNumber[i]
		}
	}
	return string(masked)
}
