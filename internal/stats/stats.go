package stats

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"matchmaker/internal/model"
)

const (
	defaultHours = 2.0
	recentUsers  = 5
)

// Badge names.
const (
	BadgeHelpingHand       = "Helping Hand"
	BadgeCommunityHero     = "Community Hero"
	BadgeEcoWarrior        = "Eco Warrior"
	BadgeAnimalLover       = "Animal Lover"
	BadgeEducationChampion = "Education Champion"
)

var errBadTime = errors.New("unparsable time range")

// ForVolunteer summarizes the events user volunteered at whose date is before now.
func ForVolunteer(user model.User, events []model.Event, now time.Time) model.VolunteerStats {
	volunteered := make(map[string]struct{})
	for _, reg := range user.RegisteredEvents {
		if reg.Role == model.ParticipationVolunteer {
			volunteered[reg.EventID] = struct{}{}
		}
	}

	var past []model.Event
	for _, e := range events {
		if _, ok := volunteered[e.ID]; !ok {
			continue
		}
		day, err := e.Day(now.Location())
		if err != nil || !day.Before(now) {
			continue
		}
		past = append(past, e)
	}

	st := model.VolunteerStats{Badges: []string{}}
	causes := make(map[model.Category]int)
	for _, e := range past {
		st.TotalHours += Hours(e.Time)
		causes[e.Category]++
	}
	st.TotalHours = math.Round(st.TotalHours*10) / 10
	st.EventsVolunteered = len(past)
	st.CausesSupported = len(causes)

	if st.TotalHours >= 50 {
		st.Badges = append(st.Badges, BadgeHelpingHand)
	}
	if st.EventsVolunteered >= 5 {
		st.Badges = append(st.Badges, BadgeCommunityHero)
	}
	if causes[model.CategoryEnvironment] >= 2 {
		st.Badges = append(st.Badges, BadgeEcoWarrior)
	}
	if causes[model.CategoryAnimals] >= 2 {
		st.Badges = append(st.Badges, BadgeAnimalLover)
	}
	if causes[model.CategoryEducation] >= 2 {
		st.Badges = append(st.Badges, BadgeEducationChampion)
	}
	return st
}

// Hours returns the length of a "9:00 AM - 12:00 PM" style range rounded to a
// tenth of an hour. Ranges ending before they start wrap past midnight.
// Unparsable ranges count as two hours.
func Hours(timeRange string) float64 {
	start, end, ok := strings.Cut(timeRange, " - ")
	if !ok {
		return defaultHours
	}
	from, err := clockMinutes(start)
	if err != nil {
		return defaultHours
	}
	to, err := clockMinutes(end)
	if err != nil {
		return defaultHours
	}
	diff := float64(to-from) / 60
	if diff < 0 {
		diff += 24
	}
	return math.Round(diff*10) / 10
}

func clockMinutes(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, errBadTime
	}
	hh, mm, ok := strings.Cut(fields[0], ":")
	if !ok {
		return 0, errBadTime
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 23 {
		return 0, errBadTime
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, errBadTime
	}
	if len(fields) == 2 {
		switch strings.ToLower(fields[1]) {
		case "pm":
			if hours < 12 {
				hours += 12
			}
		case "am":
			if hours == 12 {
				hours = 0
			}
		default:
			return 0, errBadTime
		}
	}
	return hours*60 + minutes, nil
}

// ForAdmin builds the admin dashboard aggregates.
func ForAdmin(users []model.User, events []model.Event) model.AdminStats {
	st := model.AdminStats{
		TotalUsers:       len(users),
		TotalEvents:      len(events),
		EventsByCategory: make(map[model.Category]int, len(model.Categories)),
	}
	for _, c := range model.Categories {
		st.EventsByCategory[c] = 0
	}
	for _, u := range users {
		if u.Role == model.RoleVolunteer {
			st.TotalVolunteers++
		}
	}
	for _, e := range events {
		st.EventsByCategory[e.Category]++
		if e.Status == model.StatusPending {
			st.PendingEvents++
		}
	}

	// Users are stored in signup order; the newest come last.
	recent := make([]model.User, len(users))
	copy(recent, users)
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	if len(recent) > recentUsers {
		recent = recent[:recentUsers]
	}
	st.RecentUsers = recent
	return st
}
