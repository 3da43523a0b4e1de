package booru

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts.json" {
			t.Errorf("path = %q", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("limit") != "50" || q.Get("page") != "2" {
			t.Errorf("pagination query = %v", q)
		}
		if q.Get("tags") != "rating:g solo" {
			t.Errorf("tags query = %q", q.Get("tags"))
		}

		user, key, ok := r.BasicAuth()
		if !ok || user != "kuma" || key != "secret" {
			t.Errorf("basic auth = %q/%q (%v)", user, key, ok)
		}

		w.Write([]byte(`[{"id": 9, "file_url": "/data/9.png", "tag_string": "rating:g solo"}]`))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Username: "kuma", APIKey: "secret"})
	items, err := c.Search(t.Context(), []string{"rating:g", "solo"}, 2, 50)
	if err != nil {
		t.Fatalf("Search error = %v", err)
	}
	if len(items) != 1 || items[0].ID != 9 || items[0].FileURL != "/data/9.png" {
		t.Errorf("Search = %+v", items)
	}
}

func TestClientSearchNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL})
	if _, err := c.Search(t.Context(), nil, 1, 50); err == nil {
		t.Fatal("Search succeeded on a 429")
	}
}

func TestClientSearchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"not": "a list"`))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL})
	if _, err := c.Search(t.Context(), nil, 1, 50); err == nil {
		t.Fatal("Search succeeded on a malformed body")
	}
}
