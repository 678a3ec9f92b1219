package repo

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"matchmaker/internal/model"
)

// NoticeMessage renders the user-facing text for a notification about e.
func NoticeMessage(t model.NotificationType, e model.Event) string {
	switch t {
	case model.NotificationCancellation:
		return fmt.Sprintf("The event \"%s\" has been cancelled by the organizer.", e.Title)
	case model.NotificationVolunteerApproved:
		return fmt.Sprintf("Your application to volunteer at \"%s\" has been approved. See you there!", e.Title)
	case model.NotificationVolunteerDenied:
		return fmt.Sprintf("Your application to volunteer at \"%s\" was not accepted this time.", e.Title)
	case model.NotificationReminder:
		return fmt.Sprintf("Reminder: \"%s\" is coming up on %s (%s) at %s.", e.Title, e.Date, e.Time, e.Location)
	case model.NotificationThankYou:
		return fmt.Sprintf("Thank you for volunteering at \"%s\"! Your help made a difference.", e.Title)
	default:
		return e.Title
	}
}

func (r *repository) notice(userID string, t model.NotificationType, e model.Event) model.Notification {
	return NewNotification(userID, t, e, r.now())
}

func NewNotification(userID string, t model.NotificationType, e model.Event, at time.Time) model.Notification {
	return model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   NoticeMessage(t, e),
		Type:      t,
		EventID:   e.ID,
		Timestamp: at,
	}
}

func sortNewestFirst(ns []model.Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].Timestamp.After(ns[j].Timestamp)
	})
}
