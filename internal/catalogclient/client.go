// Package catalogclient is the CardCatalog adapter (spec §6): an HTTP
// client speaking to an out-of-process card-printing provider, grounded
// on the teacher's internal/repository.CardRepository contract but
// fetching from a remote service instead of a bundled JSON file (the
// bundled-fixture case is served instead by cmd/catalogfixture for
// local development).
package catalogclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
)

// Client implements engine/catalog.Catalog against a remote provider.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Lookup(ctx context.Context, id string) (domain.Card, error) {
	var card domain.Card
	if err := c.get(ctx, "/cards/"+url.PathEscape(id), &card); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

func (c *Client) ByName(ctx context.Context, name string) (domain.Card, error) {
	var card domain.Card
	if err := c.get(ctx, "/cards/by-name/"+url.PathEscape(name), &card); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

type bulkRequest struct {
	Names []string `json:"names"`
}

type bulkResponse struct {
	Cards map[string]domain.Card `json:"cards"`
}

func (c *Client) BulkByName(ctx context.Context, names []string) (map[string]domain.Card, error) {
	body, err := json.Marshal(bulkRequest{Names: names})
	if err != nil {
		return nil, enginerr.Newf(enginerr.KindApplyFailed, "catalogclient: encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cards/bulk-by-name", strings.NewReader(string(body)))
	if err != nil {
		return nil, enginerr.Newf(enginerr.KindApplyFailed, "catalogclient: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, enginerr.Newf(enginerr.KindApplyFailed, "catalogclient: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp.StatusCode, "bulk-by-name")
	}

	var out bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, enginerr.Newf(enginerr.KindApplyFailed, "catalogclient: decode response: %v", err)
	}
	return out.Cards, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return enginerr.Newf(enginerr.KindApplyFailed, "catalogclient: %v", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return enginerr.Newf(enginerr.KindApplyFailed, "catalogclient: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return enginerr.NotFound("card", path)
	}
	if resp.StatusCode != http.StatusOK {
		return statusErr(resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusErr(status int, path string) error {
	return enginerr.Newf(enginerr.KindApplyFailed, "catalogclient: %s returned %s", path, fmt.Sprint(status))
}
