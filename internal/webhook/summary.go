package webhook

import (
	"github.com/google/uuid"
	"github.com/zinc-sig/seance/internal/harness"
)

// Summary is the JSON payload describing one evaluated test group: the
// per-case verdicts plus aggregate counts.
type Summary struct {
	RunID  string               `json:"run_id"`
	Group  string               `json:"group"`
	Acting string               `json:"acting_party"`
	Status string               `json:"status"`
	Passed int                  `json:"passed"`
	Failed int                  `json:"failed"`
	Cases  []harness.CaseResult `json:"cases"`

	// Harness-level failure, set when no record could be produced
	Error string `json:"error,omitempty"`

	// Delivery status (only in local output, not sent to the webhook)
	WebhookSent  bool   `json:"webhook_sent,omitempty"`
	WebhookError string `json:"webhook_error,omitempty"`
}

// NewSummary aggregates case verdicts into a summary with a fresh run id.
func NewSummary(group, acting string, cases []harness.CaseResult) *Summary {
	s := &Summary{
		RunID:  uuid.NewString(),
		Group:  group,
		Acting: acting,
		Cases:  cases,
	}
	for _, c := range cases {
		if c.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	if s.Failed == 0 {
		s.Status = "passed"
	} else {
		s.Status = "failed"
	}
	return s
}

// NewErrorSummary builds the summary for a harness-level failure, where no
// record could be produced and every case is moot.
func NewErrorSummary(group, acting string, err error) *Summary {
	return &Summary{
		RunID:  uuid.NewString(),
		Group:  group,
		Acting: acting,
		Status: "error",
		Error:  err.Error(),
	}
}
