package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kumabot/kumabot/booru"
	"github.com/kumabot/kumabot/bot/model"
)

// Fetcher retrieves one deduplicated content item for a namespace.
type Fetcher interface {
	Fetch(ctx context.Context, tags []string, namespace string) (*model.Image, error)
}

// BlockListStore mutates the banned search terms.
type BlockListStore interface {
	AddTerm(ctx context.Context, term string) (bool, error)
	RemoveTerm(ctx context.Context, term string) (bool, error)
}

// Set is the closed set of commands this bot ships with, bound to their
// collaborators and assembled into a Registry at startup.
type Set struct {
	fetcher   Fetcher
	blocklist BlockListStore
	registry  *Registry
}

func NewSet(fetcher Fetcher, blocklist BlockListStore) *Set {
	s := &Set{fetcher: fetcher, blocklist: blocklist}
	s.registry = NewRegistry(
		&Descriptor{Names: []string{"dan"}, NSFW: true, Handler: s.danbooru},
		&Descriptor{Names: []string{"safe", "sfw"}, Handler: s.safeDanbooru},
		&Descriptor{Names: []string{"lewd", "nsfw"}, NSFW: true, Handler: s.lewdDanbooru},
		&Descriptor{Names: []string{"danban"}, MinAuthority: model.AuthorityAdministrator, Handler: s.blockTags},
		&Descriptor{Names: []string{"danunban"}, MinAuthority: model.AuthorityAdministrator, Handler: s.allowTags},
		&Descriptor{Names: []string{"help"}, Handler: s.help},
		&Descriptor{Names: []string{"ping"}, Handler: s.ping},
	)
	return s
}

func (s *Set) Registry() *Registry { return s.registry }

func (s *Set) danbooru(ctx context.Context, req *model.Request, args []string) (*model.Response, error) {
	return s.fetchImage(ctx, req, args)
}

func (s *Set) safeDanbooru(ctx context.Context, req *model.Request, args []string) (*model.Response, error) {
	tags := append([]string{"rating:g"}, args...)
	return s.fetchImage(ctx, req, tags)
}

func (s *Set) lewdDanbooru(ctx context.Context, req *model.Request, args []string) (*model.Response, error) {
	tags := append([]string{"-rating:g"}, args...)
	return s.fetchImage(ctx, req, tags)
}

func (s *Set) fetchImage(ctx context.Context, req *model.Request, tags []string) (*model.Response, error) {
	image, err := s.fetcher.Fetch(ctx, tags, req.Namespace())
	if errors.Is(err, booru.ErrNotFound) {
		return model.NewResponse("Nothing found!"), nil
	}
	if err != nil {
		return nil, err
	}

	return &model.Response{Image: image, Timestamp: time.Now().UTC()}, nil
}

func (s *Set) blockTags(ctx context.Context, _ *model.Request, args []string) (*model.Response, error) {
	added := 0
	for _, term := range args {
		ok, err := s.blocklist.AddTerm(ctx, term)
		if err != nil {
			return nil, err
		}
		if ok {
			added++
		}
	}

	if added == 0 {
		return model.NewResponse("Nothing to add."), nil
	}
	return model.NewResponse(fmt.Sprintf("%d tags added.", added)), nil
}

func (s *Set) allowTags(ctx context.Context, _ *model.Request, args []string) (*model.Response, error) {
	removed := 0
	for _, term := range args {
		ok, err := s.blocklist.RemoveTerm(ctx, term)
		if err != nil {
			return nil, err
		}
		if ok {
			removed++
		}
	}

	if removed == 0 {
		return model.NewResponse("Nothing to remove."), nil
	}
	return model.NewResponse(fmt.Sprintf("%d tags removed.", removed)), nil
}

// help lists only the commands the requester could actually run here.
func (s *Set) help(_ context.Context, req *model.Request, _ []string) (*model.Response, error) {
	var names []string
	for _, d := range s.registry.Descriptors() {
		if req.Authority < d.MinAuthority {
			continue
		}
		if d.NSFW && !req.ChannelIsNSFW {
			continue
		}
		names = append(names, d.Name())
	}

	return model.NewResponse("Available commands: " + strings.Join(names, ", ")), nil
}

func (s *Set) ping(_ context.Context, _ *model.Request, _ []string) (*model.Response, error) {
	return model.NewResponse("Pong!"), nil
}
