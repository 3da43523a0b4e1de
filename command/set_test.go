package command

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/kumabot/kumabot/booru"
	"github.com/kumabot/kumabot/bot/model"
)

type fakeFetcher struct {
	tags      []string
	namespace string
	image     *model.Image
	err       error
}

func (f *fakeFetcher) Fetch(_ context.Context, tags []string, namespace string) (*model.Image, error) {
	f.tags = tags
	f.namespace = namespace
	return f.image, f.err
}

type fakeBlockList struct {
	terms map[string]struct{}
}

func newFakeBlockList(terms ...string) *fakeBlockList {
	b := &fakeBlockList{terms: make(map[string]struct{})}
	for _, t := range terms {
		b.terms[t] = struct{}{}
	}
	return b
}

func (b *fakeBlockList) AddTerm(_ context.Context, term string) (bool, error) {
	if _, ok := b.terms[term]; ok {
		return false, nil
	}
	b.terms[term] = struct{}{}
	return true, nil
}

func (b *fakeBlockList) RemoveTerm(_ context.Context, term string) (bool, error) {
	if _, ok := b.terms[term]; !ok {
		return false, nil
	}
	delete(b.terms, term)
	return true, nil
}

func testRequest() *model.Request {
	req := model.NewRequest(model.SourceDiscord, "someone", "", model.AuthorityUser)
	req.ChannelID = "42"
	return req
}

func run(t *testing.T, s *Set, name string, req *model.Request, args []string) *model.Response {
	t.Helper()
	d, ok := s.Registry().Lookup(name)
	if !ok {
		t.Fatalf("command %q not registered", name)
	}
	resp, err := d.Handler(t.Context(), req, args)
	if err != nil {
		t.Fatalf("command %q error = %v", name, err)
	}
	return resp
}

func TestSafeCommandPrependsRatingTag(t *testing.T) {
	fetcher := &fakeFetcher{image: &model.Image{URL: "https://booru.example/1.png"}}
	s := NewSet(fetcher, newFakeBlockList())

	resp := run(t, s, "safe", testRequest(), []string{"solo"})
	if resp.Image == nil {
		t.Fatal("no image in response")
	}
	if !slices.Equal(fetcher.tags, []string{"rating:g", "solo"}) {
		t.Errorf("tags = %v", fetcher.tags)
	}
	if fetcher.namespace != "discord:42" {
		t.Errorf("namespace = %q", fetcher.namespace)
	}
}

func TestLewdCommandNegatesRatingTag(t *testing.T) {
	fetcher := &fakeFetcher{image: &model.Image{URL: "https://booru.example/1.png"}}
	s := NewSet(fetcher, newFakeBlockList())

	run(t, s, "nsfw", testRequest(), nil)
	if !slices.Equal(fetcher.tags, []string{"-rating:g"}) {
		t.Errorf("tags = %v", fetcher.tags)
	}
}

func TestDanCommandNothingFound(t *testing.T) {
	fetcher := &fakeFetcher{err: booru.ErrNotFound}
	s := NewSet(fetcher, newFakeBlockList())

	resp := run(t, s, "dan", testRequest(), []string{"solo"})
	if resp.Message != "Nothing found!" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Image != nil {
		t.Error("unexpected image payload")
	}
}

func TestBlockTags(t *testing.T) {
	blocklist := newFakeBlockList("already")
	s := NewSet(&fakeFetcher{}, blocklist)

	resp := run(t, s, "danban", testRequest(), []string{"already", "guro"})
	if resp.Message != "1 tags added." {
		t.Errorf("message = %q", resp.Message)
	}

	resp = run(t, s, "danban", testRequest(), []string{"already"})
	if resp.Message != "Nothing to add." {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestAllowTags(t *testing.T) {
	blocklist := newFakeBlockList("guro")
	s := NewSet(&fakeFetcher{}, blocklist)

	resp := run(t, s, "danunban", testRequest(), []string{"guro", "absent"})
	if resp.Message != "1 tags removed." {
		t.Errorf("message = %q", resp.Message)
	}

	resp = run(t, s, "danunban", testRequest(), []string{"absent"})
	if resp.Message != "Nothing to remove." {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestHelpFiltersByAuthorityAndChannel(t *testing.T) {
	s := NewSet(&fakeFetcher{}, newFakeBlockList())

	req := testRequest()
	resp := run(t, s, "help", req, nil)
	for _, hidden := range []string{"dan,", "lewd", "danban", "danunban"} {
		if strings.Contains(resp.Message, hidden) {
			t.Errorf("help for a plain user in a clean channel lists %q: %s", hidden, resp.Message)
		}
	}
	if !strings.Contains(resp.Message, "safe") {
		t.Errorf("help missing safe: %s", resp.Message)
	}

	admin := testRequest()
	admin.Authority = model.AuthorityAdministrator
	admin.ChannelIsNSFW = true
	resp = run(t, s, "help", admin, nil)
	for _, visible := range []string{"dan", "lewd", "danban", "danunban", "safe", "ping", "help"} {
		if !strings.Contains(resp.Message, visible) {
			t.Errorf("admin help missing %q: %s", visible, resp.Message)
		}
	}
}

func TestPing(t *testing.T) {
	s := NewSet(&fakeFetcher{}, newFakeBlockList())

	if resp := run(t, s, "ping", testRequest(), nil); resp.Message != "Pong!" {
		t.Errorf("message = %q", resp.Message)
	}
}
