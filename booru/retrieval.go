package booru

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kumabot/kumabot/bot/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNotFound means the search was exhausted, aborted, or blocked before
// anything usable was found.
var ErrNotFound = errors.New("booru: nothing found")

const ledgerKeyPrefix = "danbooru"

// Searcher is the paginated external search provider.
type Searcher interface {
	Search(ctx context.Context, tags []string, page, limit int) ([]Item, error)
}

// Ledger records which items were already served to a namespace. Keys
// expire after the retention window.
type Ledger interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// BlockList exposes the current set of banned search terms.
type BlockList interface {
	Terms(ctx context.Context) ([]string, error)
}

type RetrieverConfig struct {
	// BaseURL is used to resolve relative file links and build source page
	// links. Defaults to the public provider.
	BaseURL string

	// PageSize is the fixed provider page size. Defaults to 50.
	PageSize int

	// Retention is the dedup window per namespace. Defaults to one day.
	Retention time.Duration
}

// Retriever returns at most one content item per call that is not
// block-listed, not recently served to the namespace, and directly
// linkable.
type Retriever struct {
	searcher  Searcher
	ledger    Ledger
	blocklist BlockList
	c         RetrieverConfig
}

func NewRetriever(searcher Searcher, ledger Ledger, blocklist BlockList, c RetrieverConfig) *Retriever {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}

	return &Retriever{
		searcher:  searcher,
		ledger:    ledger,
		blocklist: blocklist,
		c:         c,
	}
}

// Fetch pages through the provider and returns a random item passing the
// dedup, link, and block-list filters, recording it in the ledger. The
// block-list and ledger are snapshotted once per call; concurrent edits are
// not observed mid-search. Returns ErrNotFound when the provider is
// exhausted, fails, or the input tags are themselves blocked.
func (r *Retriever) Fetch(ctx context.Context, tags []string, namespace string) (*model.Image, error) {
	blocked, err := r.blockedTerms(ctx)
	if err != nil {
		return nil, err
	}

	// Blocked requests never reach the network.
	for _, tag := range tags {
		if _, ok := blocked[tag]; ok {
			return nil, ErrNotFound
		}
	}

	prefix := fmt.Sprintf("%s:%s:", ledgerKeyPrefix, namespace)
	keys, err := r.ledger.KeysWithPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("load dedup keys: %w", err)
	}
	served := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		served[k] = struct{}{}
	}

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items, err := r.searcher.Search(ctx, tags, page, r.c.PageSize)
		if err != nil {
			// Partial results are not salvaged.
			slog.Warn("[booru] search aborted", "page", page, "error", err)
			return nil, ErrNotFound
		}
		if len(items) == 0 {
			return nil, ErrNotFound
		}

		// Sample the page uniformly without replacement so repeated
		// searches don't always surface the same first match.
		for len(items) > 0 {
			i := rand.IntN(len(items))
			item := items[i]
			items[i] = items[len(items)-1]
			items = items[:len(items)-1]

			key := prefix + strconv.FormatInt(item.ID, 10)
			if _, ok := served[key]; ok {
				continue
			}
			if item.FileURL == "" || item.TagString == "" {
				continue
			}
			if anyBlocked(strings.Fields(item.TagString), blocked) {
				continue
			}

			return r.compose(ctx, &item, key), nil
		}
	}
}

func (r *Retriever) blockedTerms(ctx context.Context) (map[string]struct{}, error) {
	terms, err := r.blocklist.Terms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load block list: %w", err)
	}

	blocked := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		blocked[t] = struct{}{}
	}
	return blocked, nil
}

func (r *Retriever) compose(ctx context.Context, item *Item, key string) *model.Image {
	stamp := strconv.FormatInt(time.Now().Unix(), 10)
	if err := r.ledger.Set(ctx, key, stamp, r.c.Retention); err != nil {
		// Serving the item beats strict dedup.
		slog.Warn("[booru] failed to record dedup key", "key", key, "error", err)
	}

	host := r.c.BaseURL
	if u, err := url.Parse(r.c.BaseURL); err == nil && u.Host != "" {
		host = u.Host
	}

	return &model.Image{
		URL:         r.absoluteFileURL(item.FileURL),
		Source:      fmt.Sprintf("%s/posts/%d", r.c.BaseURL, item.ID),
		Description: describe(item),
		Referrer:    host,
	}
}

func (r *Retriever) absoluteFileURL(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return fileURL
	}
	return r.c.BaseURL + fileURL
}

func anyBlocked(tags []string, blocked map[string]struct{}) bool {
	for _, tag := range tags {
		if _, ok := blocked[tag]; ok {
			return true
		}
	}
	return false
}

var titleCaser = cases.Title(language.English)

// describe builds the human-readable image caption: character names
// title-cased ("Multiple" beyond two), series name, and an artist credit
// line when present.
func describe(item *Item) string {
	characters := strings.Fields(item.TagStringCharacter)
	character := ""
	if len(characters) > 0 {
		character = characterName(characters[0])
		switch {
		case len(characters) == 2:
			character = fmt.Sprintf("%s and %s", character, characterName(characters[1]))
		case len(characters) > 2:
			character = "Multiple"
		}
	}

	copyrights := strings.Fields(item.TagStringCopyright)
	series := ""
	if len(copyrights) > 0 {
		series = titleCaser.String(strings.ReplaceAll(copyrights[0], "_", " "))
	}

	var description string
	switch {
	case character != "" && series != "":
		description = fmt.Sprintf("%s - %s", character, series)
	case series != "":
		description = fmt.Sprintf("Unknown - %s", series)
	default:
		description = "Original"
	}

	if artist := strings.ReplaceAll(item.TagStringArtist, "_", " "); artist != "" {
		description += fmt.Sprintf("\nDrawn by %s", artist)
	}

	return description
}

// characterName strips a disambiguation suffix like "(kancolle)" and
// title-cases the rest.
func characterName(tag string) string {
	name, _, _ := strings.Cut(tag, "(")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(titleCaser.String(name))
}
