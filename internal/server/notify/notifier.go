// Package notify delivers staff-assignment notifications. Delivery is
// best-effort and fire-and-forget: failures are logged by the caller, never
// rolled back against the mutation that triggered them.
package notify

import "context"

// AssignmentNotification is the payload contract with the external mail
// pipeline consuming the queue.
type AssignmentNotification struct {
	To             string `json:"to"`
	StaffName      string `json:"staffName"`
	ProjectTitle   string `json:"projectTitle"`
	ProjectID      string `json:"projectId"`
	ClientName     string `json:"clientName"`
	ClientEmail    string `json:"clientEmail"`
	AssignedByName string `json:"assignedByName"`
	Notes          string `json:"notes,omitempty"`
}

// CompletionNotification tells a client their project's deliverables are
// ready.
type CompletionNotification struct {
	To           string  `json:"to"`
	Cc           *string `json:"cc,omitempty"`
	ProjectTitle string  `json:"projectTitle"`
	ProjectID    string  `json:"projectId"`
	ClientName   string  `json:"clientName"`
}

type Notifier interface {
	// NotifyAssignment queues one assignment email.
	NotifyAssignment(ctx context.Context, n AssignmentNotification) error

	// NotifyCompletion queues one completion email.
	NotifyCompletion(ctx context.Context, n CompletionNotification) error
}

// Noop discards all notifications. Used when no queue is configured.
type Noop struct{}

func (Noop) NotifyAssignment(context.Context, AssignmentNotification) error { return nil }

func (Noop) NotifyCompletion(context.Context, CompletionNotification) error { return nil }
