package dto

import (
	"fmt"
	"strings"

	"matchmaker/internal/model"
)

// DefaultCoordinates is used when an event is submitted without a position (Seattle, WA).
var DefaultCoordinates = model.Coordinates{Lat: 47.6062, Lng: -122.3321}

type RegisterRequest struct {
	Name      string           `json:"name" validate:"required,min=2,max=100"`
	Email     string           `json:"email" validate:"required,email"`
	Password  string           `json:"password" validate:"required,min=8,max=72"`
	Role      model.Role       `json:"role" validate:"required,oneof=VOLUNTEER ATTENDEE ORGANIZER"`
	Bio       string           `json:"bio" validate:"max=1000"`
	Location  string           `json:"location" validate:"max=200"`
	Interests []model.Category `json:"interests" validate:"dive,category"`
	Skills    []string         `json:"skills" validate:"dive,max=50"`
}

func (r RegisterRequest) ToModel() *model.User {
	return &model.User{
		Name:             strings.TrimSpace(r.Name),
		Email:            strings.TrimSpace(r.Email),
		Role:             r.Role,
		Bio:              r.Bio,
		Location:         r.Location,
		Interests:        nonNilCategories(r.Interests),
		Skills:           cleanList(r.Skills),
		AvatarURL:        avatarURL(r.Name),
		RegisteredEvents: []model.Participation{},
		PendingEvents:    []model.Participation{},
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name      string           `json:"name" validate:"required,min=2,max=100"`
	Bio       string           `json:"bio" validate:"max=1000"`
	Location  string           `json:"location" validate:"max=200"`
	AvatarURL string           `json:"avatarUrl" validate:"omitempty,url"`
	Interests []model.Category `json:"interests" validate:"dive,category"`
	Skills    []string         `json:"skills" validate:"dive,max=50"`
}

func (r UpdateProfileRequest) Apply(u *model.User) {
	u.Name = strings.TrimSpace(r.Name)
	u.Bio = r.Bio
	u.Location = r.Location
	if r.AvatarURL != "" {
		u.AvatarURL = r.AvatarURL
	}
	u.Interests = nonNilCategories(r.Interests)
	u.Skills = cleanList(r.Skills)
}

type CoordinatesRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type EventRequest struct {
	Title          string              `json:"title" validate:"required,max=200"`
	Description    string              `json:"description" validate:"required,max=5000"`
	Date           string              `json:"date" validate:"required,eventdate"`
	Time           string              `json:"time" validate:"required,timerange"`
	Location       string              `json:"location" validate:"required,max=200"`
	Coordinates    *CoordinatesRequest `json:"coordinates"`
	Category       model.Category      `json:"category" validate:"required,category"`
	RequiredSkills []string            `json:"requiredSkills" validate:"dive,max=50"`
	MaxCapacity    int                 `json:"maxCapacity" validate:"gte=0"`
	ImageURL       string              `json:"imageUrl" validate:"omitempty,url"`
	IsMicro        bool                `json:"isMicro"`
}

// ToModel builds a pending event owned by organizer.
func (r EventRequest) ToModel(organizer model.User) *model.Event {
	e := &model.Event{
		Organizer:         organizer.Name,
		OrganizerID:       organizer.ID,
		Attendees:         []string{},
		Volunteers:        []string{},
		PendingVolunteers: []string{},
		Waitlist:          []string{},
		Status:            model.StatusPending,
	}
	r.Apply(e)
	return e
}

// Apply copies the editable fields onto e, leaving participants and status alone.
func (r EventRequest) Apply(e *model.Event) {
	e.Title = strings.TrimSpace(r.Title)
	e.Description = r.Description
	e.Date = r.Date
	e.Time = r.Time
	e.Location = r.Location
	e.Category = r.Category
	e.RequiredSkills = cleanList(r.RequiredSkills)
	e.MaxCapacity = r.MaxCapacity
	e.IsMicro = r.IsMicro
	switch {
	case r.Coordinates != nil:
		e.Coordinates = model.Coordinates{Lat: r.Coordinates.Lat, Lng: r.Coordinates.Lng}
	case e.Coordinates == (model.Coordinates{}):
		e.Coordinates = DefaultCoordinates
	}
	switch {
	case r.ImageURL != "":
		e.ImageURL = r.ImageURL
	case e.ImageURL == "":
		e.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/600/400", strings.Join(strings.Fields(e.Title), ""))
	}
}

type SignupRequest struct {
	Role model.ParticipationRole `json:"role" validate:"required,signuprole"`
}

// RegisterResult is returned after signing up for an event.
type RegisterResult struct {
	Outcome string      `json:"outcome"`
	Event   model.Event `json:"event"`
	User    model.User  `json:"user"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type EventsResponse struct {
	Events        []model.Event `json:"events"`
	Filters       model.Filters `json:"filters"`
	LocationError string        `json:"locationError,omitempty"`
}

type DeleteEventResponse struct {
	EventID       string               `json:"eventId"`
	Notifications []model.Notification `json:"notifications"`
}

// PublicUser strips credentials before a user leaves the service.
func PublicUser(u model.User) model.User {
	u.PasswordHash = ""
	return u
}

func PublicUsers(users []model.User) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, PublicUser(u))
	}
	return out
}

func avatarURL(name string) string {
	return "https://i.pravatar.cc/150?u=" + strings.ToLower(strings.Join(strings.Fields(name), ""))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonNilCategories(c []model.Category) []model.Category {
	if c == nil {
		return []model.Category{}
	}
	return c
}
