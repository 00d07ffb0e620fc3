package models

import "time"

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	StatusPending    ProjectStatus = "PENDING"
	StatusInProgress ProjectStatus = "IN_PROGRESS"
	StatusCompleted  ProjectStatus = "COMPLETED"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Project is a client workspace owned by exactly one client and created by
// one admin. Staff access is many-to-many via StaffAssignment; StaffID is a
// denormalized compatibility field updated alongside the assignment table,
// never a source of truth.
type Project struct {
	ID          string
	Title       string
	ClientID    string
	CreatedByID string
	StaffID     *string
	Status      ProjectStatus

	// Completion metadata. Set on entry to COMPLETED, cleared on exit.
	CompletionSubmittedAt         *time.Time
	CompletionSubmittedByID       *string
	CompletionNotifiedAt          *time.Time
	CompletionNotifiedByID        *string
	CompletionNotificationEmail   *string
	CompletionNotificationEmailCc *string

	CreatedAt time.Time
}

// StaffAssignment grants one staff principal access to one project.
// Composite-unique on (ProjectID, StaffID).
type StaffAssignment struct {
	ProjectID    string
	StaffID      string
	AssignedByID string
	AssignedAt   time.Time
}

// User is a directory record used to resolve names and emails for
// notification payloads. Credentials live outside this core.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}
