package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/govhub-labs/govstate-storage/pkg/sdk"
)

const (
	proposalsQuery = `query Proposals($space: String!) {
  proposals(first: 1000, where: {space: $space}, orderBy: "created", orderDirection: desc) {
    id title body choices scores state start end quorum snapshot votes link author
  }
}`

	proposalQuery = `query Proposal($id: String!) {
  proposal(id: $id) {
    id title body choices scores state start end quorum snapshot votes link author
  }
}`
)

type Client struct {
	client *http.Client
	hubURL string
}

func NewClient(hubURL string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		client: client,
		hubURL: hubURL,
	}
}

// GetProposals returns all voting records of the given space.
func (c *Client) GetProposals(ctx context.Context, space string) ([]Proposal, error) {
	resp, err := c.query(ctx, "proposals", proposalsQuery, map[string]any{"space": space})
	if err != nil {
		return nil, err
	}

	return resp.Data.Proposals, nil
}

// GetProposal returns one voting record by id.
func (c *Client) GetProposal(ctx context.Context, id string) (*Proposal, error) {
	resp, err := c.query(ctx, "proposal", proposalQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}

	if resp.Data.Proposal == nil {
		return nil, sdk.ErrNotFound
	}

	return resp.Data.Proposal, nil
}

func (c *Client) query(ctx context.Context, alias, query string, vars map[string]any) (*graphqlResponse, error) {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.hubURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("alias", alias)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request do: %s: %w", err, sdk.ErrUnavailable)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, sdk.ErrUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %s: %w", err, sdk.ErrUnavailable)
	}

	var parsed graphqlResponse
	if err = json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal body: %w", sdk.ErrInvalidData)
	}

	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("hub error: %s: %w", parsed.Errors[0].Message, sdk.ErrInvalidData)
	}

	return &parsed, nil
}
