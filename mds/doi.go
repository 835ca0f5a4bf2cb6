package mds

import (
	"context"
	"net/http"
	"strings"

	"github.com/goliatone/go-datacite/core"
)

// DOIAPI talks to the /doi resource.
type DOIAPI struct {
	client *Client
}

func NewDOIAPI(client *Client) *DOIAPI {
	return &DOIAPI{client: client}
}

// Get returns the landing page URL registered for doi. An empty body yields
// an empty string.
func (a *DOIAPI) Get(ctx context.Context, doi string) (string, error) {
	res, err := a.client.Call(ctx, core.ResourceDOI, CallRequest{Path: doi})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(res.Body)), nil
}

// List returns every DOI of the data centre in registry order.
func (a *DOIAPI) List(ctx context.Context) ([]string, error) {
	res, err := a.client.Call(ctx, core.ResourceDOI, CallRequest{})
	if err != nil {
		return nil, err
	}
	return splitLines(string(res.Body)), nil
}

// Upsert mints doi or updates the URL it points to.
func (a *DOIAPI) Upsert(ctx context.Context, doi string, url string) error {
	body := "doi=" + strings.TrimSpace(doi) + "\nurl=" + strings.TrimSpace(url)
	_, err := a.client.Call(ctx, core.ResourceDOI, CallRequest{
		Method:  http.MethodPost,
		Body:    []byte(body),
		Headers: map[string]string{headerContent: contentTypePlain},
	})
	return err
}

func splitLines(body string) []string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

var _ core.DOIRegistry = (*DOIAPI)(nil)
