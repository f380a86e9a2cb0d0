package domain

import "fmt"

type Collaborator string

const (
	CollaboratorRuleEngine   Collaborator = "rule engine"
	CollaboratorNotification Collaborator = "notification"
	CollaboratorSound        Collaborator = "sound"
	CollaboratorStorage      Collaborator = "storage"
	CollaboratorHistory      Collaborator = "history"
)

// CollaboratorError reports a failed call into an external capability.
type CollaboratorError struct {
	Collaborator Collaborator
	Op           string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Collaborator, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Notification texts.
const (
	TitleStarted   = "Focus session started!"
	TitleReminder  = "Reminder!"
	TitleCompleted = "Focus session complete!"
	TitleError     = "Error"

	MessageReminder  = "You are in your focus session!"
	MessageCompleted = "Focus time is over. Good job!"

	StatusStarted = "Focus session started"
	StatusStopped = "Focus session stopped"
	StatusSaved   = "Blocked sites saved"

	NotificationPriority = 2
	AlertSound           = "alert.wav"
)
