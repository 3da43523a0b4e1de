package booru

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://danbooru.donmai.us"

// Item is one post returned by the search provider.
type Item struct {
	ID                 int64  `json:"id"`
	FileURL            string `json:"file_url"`
	TagString          string `json:"tag_string"`
	TagStringCharacter string `json:"tag_string_character"`
	TagStringCopyright string `json:"tag_string_copyright"`
	TagStringArtist    string `json:"tag_string_artist"`
}

type ClientConfig struct {
	BaseURL  string
	Username string
	APIKey   string

	// Timeout bounds one search request end to end. The provider has no
	// contract-level timeout, so the transport enforces one.
	Timeout time.Duration
}

// Client is a thin HTTP client for the paginated post search endpoint.
type Client struct {
	baseURL  string
	username string
	apiKey   string
	http     *http.Client
}

func NewClient(c ClientConfig) *Client {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:  strings.TrimRight(c.BaseURL, "/"),
		username: c.Username,
		apiKey:   c.APIKey,
		http:     &http.Client{Timeout: c.Timeout},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Search fetches one page of posts matching all tags.
func (c *Client) Search(ctx context.Context, tags []string, page, limit int) ([]Item, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("page", strconv.Itoa(page))
	if len(tags) > 0 {
		query.Set("tags", strings.Join(tags, " "))
	}

	endpoint := fmt.Sprintf("%s/posts.json?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return items, nil
}
