package ipfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/govhub-labs/govstate-storage/pkg/sdk"
)

type Client struct {
	client  *http.Client
	gateway string
	apiURL  string
}

func NewClient(apiURL, gateway string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		client:  client,
		gateway: gateway,
		apiURL:  apiURL,
	}
}

// GetDirectory returns all documents published under the given archive path.
func (c *Client) GetDirectory(ctx context.Context, path string) ([]Document, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/%s", c.apiURL, strings.Trim(path, "/")),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Add("alias", "archive-directory")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var dir directoryResponse
	if err = json.Unmarshal(body, &dir); err != nil {
		return nil, fmt.Errorf("unmarshal body: %w", sdk.ErrInvalidData)
	}

	return dir.Documents, nil
}

// GetJSON fetches a pinned JSON object by URI and decodes it into v.
// ipfs:// URIs are rewritten onto the configured gateway.
func (c *Client) GetJSON(ctx context.Context, uri string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURI(uri), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Add("alias", "pinned-json")

	body, err := c.do(req)
	if err != nil {
		return err
	}

	if err = json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshal body: %w", sdk.ErrInvalidData)
	}

	return nil
}

func (c *Client) resolveURI(uri string) string {
	if cid, ok := strings.CutPrefix(uri, "ipfs://"); ok {
		return fmt.Sprintf("%s/ipfs/%s", c.gateway, cid)
	}

	return uri
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request do: %s: %w", err, sdk.ErrUnavailable)
	}

	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, sdk.ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError,
		resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, sdk.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, sdk.ErrInvalidData)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %s: %w", err, sdk.ErrUnavailable)
	}

	return body, nil
}
