package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"matchmaker/internal/model"
)

const fallbackLimit = 3

var ErrNoGenerator = errors.New("recommendation service not configured")

// Generator returns a JSON document shaped as
// {"recommendations":[{"eventId":"...","reason":"..."}]} for prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	gen     Generator
	log     *zerolog.Logger
	timeout time.Duration
}

// NewClient builds a client. A nil gen always takes the interest-matching path.
func NewClient(gen Generator, log *zerolog.Logger, timeout time.Duration) *Client {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Client{gen: gen, log: log, timeout: timeout}
}

type response struct {
	Recommendations []struct {
		EventID string `json:"eventId"`
		Reason  string `json:"reason"`
	} `json:"recommendations"`
}

// Recommend asks the generator for matches and joins them back to events,
// dropping ids that do not resolve. Any failure yields Fallback.
func (c *Client) Recommend(ctx context.Context, user model.User, events []model.Event) []model.Recommendation {
	recs, err := c.generate(ctx, user, events)
	if err != nil {
		if errors.Is(err, ErrNoGenerator) {
			c.log.Debug().Msg("API key not set, using interest matching")
		} else {
			c.log.Warn().Err(err).Str("user_id", user.ID).Msg("recommendation service failed, using interest matching")
		}
		return Fallback(user, events)
	}
	return recs
}

func (c *Client) generate(ctx context.Context, user model.User, events []model.Event) ([]model.Recommendation, error) {
	if c.gen == nil {
		return nil, ErrNoGenerator
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.gen.Generate(ctx, BuildPrompt(user, events))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	var resp response
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &resp); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if resp.Recommendations == nil {
		return nil, errors.New("malformed response: missing recommendations")
	}

	byID := make(map[string]int, len(events))
	for i := range events {
		byID[events[i].ID] = i
	}

	out := make([]model.Recommendation, 0, len(resp.Recommendations))
	for _, rec := range resp.Recommendations {
		idx, ok := byID[rec.EventID]
		if !ok {
			continue
		}
		e := events[idx]
		out = append(out, model.Recommendation{EventID: rec.EventID, Reason: rec.Reason, Event: &e})
	}
	return out, nil
}

// Fallback recommends up to three events whose category is among the user's
// interests, in catalog order.
func Fallback(user model.User, events []model.Event) []model.Recommendation {
	out := make([]model.Recommendation, 0, fallbackLimit)
	for i := range events {
		if len(out) == fallbackLimit {
			break
		}
		if !user.HasInterest(events[i].Category) {
			continue
		}
		e := events[i]
		out = append(out, model.Recommendation{
			EventID: e.ID,
			Reason:  fmt.Sprintf("This %s event matches your interests and is a great opportunity.", e.Category),
			Event:   &e,
		})
	}
	return out
}

// BuildPrompt renders the user profile and catalog for the generator.
func BuildPrompt(user model.User, events []model.Event) string {
	interests := make([]string, 0, len(user.Interests))
	for _, i := range user.Interests {
		interests = append(interests, string(i))
	}

	var b strings.Builder
	b.WriteString("You are an AI assistant for the \"Local Event & Volunteer Matchmaker\" platform.\n")
	b.WriteString("Your goal is to provide personalized event recommendations to users.\n\n")
	b.WriteString("User Profile:\n")
	fmt.Fprintf(&b, "- Name: %s\n", user.Name)
	fmt.Fprintf(&b, "- Location: %s\n", user.Location)
	fmt.Fprintf(&b, "- Bio: %s\n", user.Bio)
	fmt.Fprintf(&b, "- Skills: %s\n", strings.Join(user.Skills, ", "))
	fmt.Fprintf(&b, "- Interests: %s\n\n", strings.Join(interests, ", "))
	b.WriteString("Available Events:\n")
	for _, e := range events {
		fmt.Fprintf(&b, "- Event ID: %s\n", e.ID)
		fmt.Fprintf(&b, "  Title: %s\n", e.Title)
		fmt.Fprintf(&b, "  Description: %s\n", e.Description)
		fmt.Fprintf(&b, "  Category: %s\n", e.Category)
		fmt.Fprintf(&b, "  Required Skills: %s\n", strings.Join(e.RequiredSkills, ", "))
		fmt.Fprintf(&b, "  Location: %s\n", e.Location)
	}
	b.WriteString("\nBased on the user's profile and the list of available events, please recommend the top 3 most suitable events.\n")
	b.WriteString("For each recommendation, provide the event ID and a brief, encouraging reason (20-30 words) explaining why it's a great match for the user's skills and interests.\n")
	return b.String()
}
