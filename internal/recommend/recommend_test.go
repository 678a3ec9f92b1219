package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"matchmaker/internal/model"
)

type fakeGenerator struct {
	text   string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

func catalog() []model.Event {
	return []model.Event{
		{ID: "e1", Title: "River Cleanup Day", Category: model.CategoryEnvironment, RequiredSkills: []string{"Teamwork"}},
		{ID: "e2", Title: "Gallery Night", Category: model.CategoryArts},
		{ID: "e3", Title: "Tree Planting", Category: model.CategoryEnvironment},
		{ID: "e4", Title: "Beach Sweep", Category: model.CategoryEnvironment},
		{ID: "e5", Title: "Park Restore", Category: model.CategoryEnvironment},
	}
}

func TestFallbackMatchesInterests(t *testing.T) {
	user := model.User{Interests: []model.Category{model.CategoryEnvironment}}
	events := []model.Event{
		{ID: "env", Category: model.CategoryEnvironment},
		{ID: "arts", Category: model.CategoryArts},
	}

	got := Fallback(user, events)
	if len(got) != 1 {
		t.Fatalf("Fallback returned %d recommendations, want 1", len(got))
	}
	if got[0].EventID != "env" || got[0].Event == nil || got[0].Event.ID != "env" {
		t.Fatalf("Fallback = %+v", got[0])
	}
	if got[0].Reason != "This Environment event matches your interests and is a great opportunity." {
		t.Fatalf("reason = %q", got[0].Reason)
	}
}

func TestFallbackLimitsToThree(t *testing.T) {
	user := model.User{Interests: []model.Category{model.CategoryEnvironment}}
	got := Fallback(user, catalog())
	if len(got) != 3 {
		t.Fatalf("Fallback returned %d, want 3", len(got))
	}
	for i, want := range []string{"e1", "e3", "e4"} {
		if got[i].EventID != want {
			t.Fatalf("Fallback[%d] = %s, want %s", i, got[i].EventID, want)
		}
	}
}

func TestFallbackNoInterests(t *testing.T) {
	if got := Fallback(model.User{}, catalog()); len(got) != 0 {
		t.Fatalf("Fallback without interests = %+v", got)
	}
}

func TestRecommend(t *testing.T) {
	user := model.User{
		Name:      "Ana",
		Skills:    []string{"Teamwork", "First Aid"},
		Interests: []model.Category{model.CategoryArts},
	}

	tests := []struct {
		name    string
		gen     Generator
		wantIDs []string
		reason  string
	}{
		{
			name:    "joins generated ids and drops unknown ones",
			gen:     &fakeGenerator{text: ` {"recommendations":[{"eventId":"e3","reason":"Great for you"},{"eventId":"zzz","reason":"ghost"}]} `},
			wantIDs: []string{"e3"},
			reason:  "Great for you",
		},
		{
			name:    "service error falls back",
			gen:     &fakeGenerator{err: errors.New("connection refused")},
			wantIDs: []string{"e2"},
		},
		{
			name:    "malformed json falls back",
			gen:     &fakeGenerator{text: "Sure! Here are my picks"},
			wantIDs: []string{"e2"},
		},
		{
			name:    "missing field falls back",
			gen:     &fakeGenerator{text: `{"picks":[]}`},
			wantIDs: []string{"e2"},
		},
		{
			name:    "no generator falls back",
			wantIDs: []string{"e2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.gen, nil, time.Second)
			got := c.Recommend(context.Background(), user, catalog())
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Recommend = %+v, want ids %v", got, tt.wantIDs)
			}
			for i, id := range tt.wantIDs {
				if got[i].EventID != id || got[i].Event == nil || got[i].Event.ID != id {
					t.Fatalf("Recommend[%d] = %+v, want %s", i, got[i], id)
				}
				if got[i].Reason == "" {
					t.Fatalf("Recommend[%d] has empty reason", i)
				}
			}
			if tt.reason != "" && got[0].Reason != tt.reason {
				t.Fatalf("reason = %q, want %q", got[0].Reason, tt.reason)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	user := model.User{
		Name:      "Ana",
		Location:  "Seattle",
		Bio:       "Loves rivers",
		Skills:    []string{"Teamwork", "First Aid"},
		Interests: []model.Category{model.CategoryEnvironment, model.CategoryArts},
	}
	prompt := BuildPrompt(user, catalog()[:1])

	for _, want := range []string{
		"- Name: Ana",
		"- Skills: Teamwork, First Aid",
		"- Interests: Environment, Arts & Culture",
		"- Event ID: e1",
		"Title: River Cleanup Day",
		"top 3",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGeneratorReceivesPrompt(t *testing.T) {
	gen := &fakeGenerator{text: `{"recommendations":[]}`}
	c := NewClient(gen, nil, 0)
	got := c.Recommend(context.Background(), model.User{Name: "Ben"}, catalog())
	if len(got) != 0 {
		t.Fatalf("empty generated list should stay empty, got %+v", got)
	}
	if !strings.Contains(gen.prompt, "- Name: Ben") {
		t.Fatalf("generator prompt = %q", gen.prompt)
	}
}
