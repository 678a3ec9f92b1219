package model

import "time"

type Role string

const (
	RoleVolunteer Role = "VOLUNTEER"
	RoleAttendee  Role = "ATTENDEE"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

type Category string

const (
	CategoryEnvironment Category = "Environment"
	CategoryCommunity   Category = "Community"
	CategoryEducation   Category = "Education"
	CategoryHealth      Category = "Health"
	CategoryAnimals     Category = "Animals"
	CategoryArts        Category = "Arts & Culture"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryEnvironment,
	CategoryCommunity,
	CategoryEducation,
	CategoryHealth,
	CategoryAnimals,
	CategoryArts,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type EventStatus string

const (
	StatusPending  EventStatus = "pending"
	StatusApproved EventStatus = "approved"
)

// ParticipationRole is how a user takes part in an event.
type ParticipationRole string

const (
	ParticipationAttendee  ParticipationRole = "attendee"
	ParticipationVolunteer ParticipationRole = "volunteer"
)

// DateLayout is the format of Event.Date.
const DateLayout = "2006-01-02"

type Participation struct {
	EventID string            `json:"eventId"`
	Role    ParticipationRole `json:"role"`
}

type User struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Role             Role            `json:"role"`
	Bio              string          `json:"bio"`
	Interests        []Category      `json:"interests"`
	Skills           []string        `json:"skills"`
	Location         string          `json:"location"`
	AvatarURL        string          `json:"avatarUrl"`
	RegisteredEvents []Participation `json:"registeredEvents"`
	PendingEvents    []Participation `json:"pendingEvents"`
	PasswordHash     string          `json:"passwordHash,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

func (u User) HasInterest(c Category) bool {
	for _, i := range u.Interests {
		if i == c {
			return true
		}
	}
	return false
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Event struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Date              string      `json:"date"`
	Time              string      `json:"time"`
	Location          string      `json:"location"`
	Coordinates       Coordinates `json:"coordinates"`
	Category          Category    `json:"category"`
	RequiredSkills    []string    `json:"requiredSkills"`
	MaxCapacity       int         `json:"maxCapacity"`
	Organizer         string      `json:"organizer"`
	OrganizerID       string      `json:"organizerId,omitempty"`
	ImageURL          string      `json:"imageUrl"`
	Attendees         []string    `json:"attendees"`
	Volunteers        []string    `json:"volunteers"`
	PendingVolunteers []string    `json:"pendingVolunteers"`
	Waitlist          []string    `json:"waitlist"`
	Status            EventStatus `json:"status"`
	IsMicro           bool        `json:"isMicro,omitempty"`
}

// Day parses Event.Date as a calendar day in loc.
func (e Event) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, e.Date, loc)
}

// Filled counts the seats taken by attendees and approved volunteers.
func (e Event) Filled() int {
	return len(e.Attendees) + len(e.Volunteers)
}

// Participants returns attendees, volunteers and pending volunteers without duplicates,
// in that order.
func (e Event) Participants() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range [][]string{e.Attendees, e.Volunteers, e.PendingVolunteers} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

type NotificationType string

const (
	NotificationReminder          NotificationType = "REMINDER"
	NotificationCancellation      NotificationType = "CANCELLATION"
	NotificationThankYou          NotificationType = "THANK_YOU"
	NotificationVolunteerApproved NotificationType = "VOLUNTEER_APPROVED"
	NotificationVolunteerDenied   NotificationType = "VOLUNTEER_DENIED"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	EventID   string           `json:"eventId,omitempty"`
	Read      bool             `json:"read"`
	Timestamp time.Time        `json:"timestamp"`
}

const (
	DateAny   = "any"
	DateToday = "today"
	DateWeek  = "week"
	DateMonth = "month"
)

type Filters struct {
	Keyword    string     `json:"keyword"`
	Date       string     `json:"date"`
	Categories []Category `json:"categories"`
	Distance   float64    `json:"distance"`
	IsMicro    bool       `json:"isMicro"`
}

type Recommendation struct {
	EventID string `json:"eventId"`
	Reason  string `json:"reason"`
	Event   *Event `json:"event,omitempty"`
}

type VolunteerStats struct {
	TotalHours        float64  `json:"totalHours"`
	CausesSupported   int      `json:"causesSupported"`
	EventsVolunteered int      `json:"eventsVolunteered"`
	Badges            []string `json:"badges"`
}

type AdminStats struct {
	TotalUsers       int              `json:"totalUsers"`
	TotalEvents      int              `json:"totalEvents"`
	TotalVolunteers  int              `json:"totalVolunteers"`
	PendingEvents    int              `json:"pendingEvents"`
	EventsByCategory map[Category]int `json:"eventsByCategory"`
	RecentUsers      []User           `json:"recentUsers"`
}
