package chain

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/govhub-labs/govstate-storage/pkg/sdk"
)

// Client is a thin wrapper around ethclient exposing just the read surface
// the engine needs: packed contract calls and bounded log queries.
type Client struct {
	eth *ethclient.Client
}

func Dial(rawURL string) (*Client, error) {
	eth, err := ethclient.Dial(rawURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %s: %w", err, sdk.ErrUnavailable)
	}

	return &Client{eth: eth}, nil
}

// ReadContract calls a view method and returns the unpacked tuple values.
func (c *Client) ReadContract(ctx context.Context, addr common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %s: %w", method, err, sdk.ErrUnavailable)
	}

	vals, err := contractABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, sdk.ErrInvalidData)
	}

	return vals, nil
}

// FilterLogs runs a range query and returns at most limit entries ordered by
// (blockNumber, logIndex). Callers page by re-querying from the block of the
// last returned entry.
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery, limit int) ([]types.Log, error) {
	logs, err := c.eth.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filter logs: %s: %w", err, sdk.ErrUnavailable)
	}

	sort.Slice(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}

	return logs, nil
}

// BlockNumber returns the current chain head.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("block number: %s: %w", err, sdk.ErrUnavailable)
	}

	return n, nil
}
