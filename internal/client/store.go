package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Store is the remote playlist: list it, add to it, remove from it,
// reorder it. All mutations go through the backend so every participant
// sees the same queue.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Add(ctx context.Context, rawURL, addedBy string) (Entry, error)
	Remove(ctx context.Context, id string) error
	Reorder(ctx context.Context, ids []string) error
}

// HTTPStore talks to the playlist service's REST endpoints.
type HTTPStore struct {
	baseURL string
	http    *http.Client
}

func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPStore) List(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/playlist", nil)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := s.do(req, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *HTTPStore) Add(ctx context.Context, rawURL, addedBy string) (Entry, error) {
	body, err := json.Marshal(map[string]string{
		"url":     rawURL,
		"addedBy": addedBy,
	})
	if err != nil {
		return Entry{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/playlist", bytes.NewReader(body))
	if err != nil {
		return Entry{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var entry Entry
	if err := s.do(req, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *HTTPStore) Remove(ctx context.Context, id string) error {
	u := s.baseURL + "/playlist?id=" + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	return s.do(req, nil)
}

func (s *HTTPStore) Reorder(ctx context.Context, ids []string) error {
	items := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, map[string]string{"id": id})
	}
	body, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.baseURL+"/playlist", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, nil)
}

// do executes the request and decodes a 2xx body into out when out is
// non-nil. Error responses carry {"error": msg}; that message is
// surfaced when present.
func (s *HTTPStore) do(req *http.Request, out any) error {
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
