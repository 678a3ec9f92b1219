package dto

import (
	"time"

	"matchmaker/internal/model"
)

// Queue message kinds.
const (
	// KindDeliver e-mails a notification that is already stored.
	KindDeliver = "deliver"
	// KindReminder and KindThankYou create the notification when they fire,
	// provided the user still takes part in the event.
	KindReminder = "reminder"
	KindThankYou = "thank_you"
)

type NotificationMessage struct {
	Kind         string              `json:"kind"`
	Notification *model.Notification `json:"notification,omitempty"`
	EventID      string              `json:"eventId,omitempty"`
	UserID       string              `json:"userId,omitempty"`
	DeliverAt    time.Time           `json:"deliverAt"`
}
