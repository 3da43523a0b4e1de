package store

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kumabot/kumabot/bot/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBlockListAddRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	added, err := s.AddTerm(ctx, "guro")
	if err != nil || !added {
		t.Fatalf("AddTerm = (%v, %v), want (true, nil)", added, err)
	}

	// Uniqueness is enforced on the term.
	added, err = s.AddTerm(ctx, "guro")
	if err != nil || added {
		t.Fatalf("duplicate AddTerm = (%v, %v), want (false, nil)", added, err)
	}

	has, err := s.HasTerm(ctx, "guro")
	if err != nil || !has {
		t.Fatalf("HasTerm = (%v, %v), want (true, nil)", has, err)
	}

	terms, err := s.Terms(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(terms, "guro") {
		t.Errorf("Terms = %v, missing added term", terms)
	}

	removed, err := s.RemoveTerm(ctx, "guro")
	if err != nil || !removed {
		t.Fatalf("RemoveTerm = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = s.RemoveTerm(ctx, "guro")
	if err != nil || removed {
		t.Fatalf("second RemoveTerm = (%v, %v), want (false, nil)", removed, err)
	}
}

func TestChatLogRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	for _, message := range []string{"one", "two", "three"} {
		req := model.NewRequest(model.SourceDiscord, "someone", message, model.AuthorityUser)
		req.ChannelID = "42"
		if err := s.LogRequest(ctx, req); err != nil {
			t.Fatal(err)
		}
	}

	// A different channel must not leak in.
	other := model.NewRequest(model.SourceDiscord, "someone", "elsewhere", model.AuthorityUser)
	other.ChannelID = "7"
	if err := s.LogRequest(ctx, other); err != nil {
		t.Fatal(err)
	}

	lines, err := s.Recent(ctx, model.SourceDiscord, "42", 2)
	if err != nil {
		t.Fatalf("Recent error = %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Recent returned %d lines, want 2", len(lines))
	}
	if lines[0].Message != "two" || lines[1].Message != "three" {
		t.Errorf("Recent = %q, %q; want oldest first", lines[0].Message, lines[1].Message)
	}
}

func TestLogResponseFlattensImage(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	req := model.NewRequest(model.SourceTelegram, "someone", "safe", model.AuthorityUser)
	req.ChannelID = "9"
	resp := &model.Response{
		SourceSystem: model.SourceTelegram,
		ChannelID:    "9",
		Image: &model.Image{
			URL:         "https://booru.example/1.png",
			Source:      "https://booru.example/posts/1",
			Description: "Kuma - Kantai Collection",
			Referrer:    "booru.example",
		},
		Timestamp: time.Now().UTC(),
	}

	if err := s.LogResponse(ctx, req, resp); err != nil {
		t.Fatalf("LogResponse error = %v", err)
	}

	lines, err := s.Recent(ctx, model.SourceTelegram, "9", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Fatalf("Recent returned %d lines, want 1", len(lines))
	}
	if lines[0].Username != BotUsername {
		t.Errorf("username = %q, want %q", lines[0].Username, BotUsername)
	}
	for _, fragment := range []string{"booru.example", "Kuma - Kantai Collection", "https://booru.example/1.png"} {
		if !strings.Contains(lines[0].Message, fragment) {
			t.Errorf("flattened message %q missing %q", lines[0].Message, fragment)
		}
	}
}

func TestPersonaSeeded(t *testing.T) {
	s := newTestStore(t)

	p, err := s.Persona(t.Context())
	if err != nil {
		t.Fatalf("Persona error = %v", err)
	}
	if p.Model == "" || p.TokenLimit <= 0 || p.InitialPrompt == "" {
		t.Errorf("persona config not seeded: %+v", p)
	}
	if len(p.Rules) == 0 {
		t.Error("persona rules not seeded")
	}
	if p.Rules[0] != "Always stay in character, no matter what" {
		t.Errorf("rules out of order, first = %q", p.Rules[0])
	}
}

func TestLogErrorDoesNotFail(t *testing.T) {
	s := newTestStore(t)

	if err := s.LogError(t.Context(), errors.New("provider exploded"), "dan"); err != nil {
		t.Fatalf("LogError error = %v", err)
	}
}
