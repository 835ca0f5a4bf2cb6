package mds

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-datacite/core"
)

// MediaAPI talks to the /media resource, which lists mime type to URL pairs
// for a DOI.
type MediaAPI struct {
	client *Client
}

func NewMediaAPI(client *Client) *MediaAPI {
	return &MediaAPI{client: client}
}

func (a *MediaAPI) Get(ctx context.Context, doi string) ([]core.MediaEntry, error) {
	res, err := a.client.Call(ctx, core.ResourceMedia, CallRequest{Path: doi})
	if err != nil {
		return nil, err
	}
	entries := make([]core.MediaEntry, 0)
	for _, line := range splitLines(string(res.Body)) {
		mime, url, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		entries = append(entries, core.MediaEntry{
			MimeType: strings.TrimSpace(mime),
			URL:      strings.TrimSpace(url),
		})
	}
	return entries, nil
}

func (a *MediaAPI) Upsert(ctx context.Context, doi string, entries []core.MediaEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("mds: media entries are required")
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, strings.TrimSpace(entry.MimeType)+"="+strings.TrimSpace(entry.URL))
	}
	_, err := a.client.Call(ctx, core.ResourceMedia, CallRequest{
		Path:    doi,
		Method:  http.MethodPost,
		Body:    []byte(strings.Join(lines, "\n")),
		Headers: map[string]string{headerContent: contentTypePlain},
	})
	return err
}

var _ core.MediaRegistry = (*MediaAPI)(nil)
