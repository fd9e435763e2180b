package gaugevote

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const voterABI = `[
  {
    "name": "Voted",
    "type": "event",
    "inputs": [
      {"name": "voter", "type": "address", "indexed": true},
      {"name": "gauge", "type": "address", "indexed": true},
      {"name": "epoch", "type": "uint256", "indexed": false},
      {"name": "tokenId", "type": "uint256", "indexed": false},
      {"name": "votes", "type": "uint256", "indexed": false},
      {"name": "timestamp", "type": "uint256", "indexed": false}
    ]
  },
  {
    "name": "Reset",
    "type": "event",
    "inputs": [
      {"name": "voter", "type": "address", "indexed": true},
      {"name": "gauge", "type": "address", "indexed": true},
      {"name": "epoch", "type": "uint256", "indexed": false},
      {"name": "tokenId", "type": "uint256", "indexed": false},
      {"name": "votes", "type": "uint256", "indexed": false},
      {"name": "timestamp", "type": "uint256", "indexed": false}
    ]
  }
]`

type LogFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery, limit int) ([]types.Log, error)
}

// ChainEventProvider reads raw voting contract logs and decodes them into
// events. One provider serves both event kinds.
type ChainEventProvider struct {
	client    LogFilterer
	parsedABI abi.ABI
}

func NewChainEventProvider(client LogFilterer) (*ChainEventProvider, error) {
	parsed, err := abi.JSON(strings.NewReader(voterABI))
	if err != nil {
		return nil, fmt.Errorf("parse voter abi: %w", err)
	}

	return &ChainEventProvider{
		client:    client,
		parsedABI: parsed,
	}, nil
}

func (p *ChainEventProvider) FetchPage(ctx context.Context, q EventQuery) ([]Event, error) {
	event, ok := p.parsedABI.Events[string(q.Name)]
	if !ok {
		return nil, fmt.Errorf("unknown event %s", q.Name)
	}

	topics := [][]common.Hash{{event.ID}}
	if len(q.Gauges) > 0 {
		gaugeTopics := make([]common.Hash, 0, len(q.Gauges))
		for _, gauge := range q.Gauges {
			gaugeTopics = append(gaugeTopics, common.BytesToHash(gauge.Bytes()))
		}

		// voter (topic 1) stays a wildcard
		topics = append(topics, nil, gaugeTopics)
	}

	logs, err := p.client.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{q.VotingContract},
		FromBlock: new(big.Int).SetUint64(q.FromBlock),
		ToBlock:   new(big.Int).SetUint64(q.ToBlock),
		Topics:    topics,
	}, q.PageSize)
	if err != nil {
		return nil, fmt.Errorf("filter %s logs: %w", q.Name, err)
	}

	events := make([]Event, 0, len(logs))
	for _, raw := range logs {
		e, ok := p.decodeLog(q.Name, raw)
		if !ok {
			log.Warn().
				Str("tx", raw.TxHash.Hex()).
				Uint("log_index", raw.Index).
				Msg("skip undecodable vote log")

			continue
		}

		events = append(events, e)
	}

	return events, nil
}

func (p *ChainEventProvider) decodeLog(name EventName, raw types.Log) (Event, bool) {
	if len(raw.Topics) != 3 {
		return Event{}, false
	}

	vals, err := p.parsedABI.Unpack(string(name), raw.Data)
	if err != nil || len(vals) != 4 {
		return Event{}, false
	}

	epoch, ok1 := vals[0].(*big.Int)
	tokenID, ok2 := vals[1].(*big.Int)
	votes, ok3 := vals[2].(*big.Int)
	timestamp, ok4 := vals[3].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Event{}, false
	}

	return Event{
		Name:            name,
		TokenID:         tokenID.String(),
		Voter:           common.BytesToAddress(raw.Topics[1].Bytes()),
		Gauge:           common.BytesToAddress(raw.Topics[2].Bytes()),
		Epoch:           epoch.Uint64(),
		VotingContract:  raw.Address,
		Timestamp:       timestamp.Uint64(),
		LogIndex:        raw.Index,
		BlockNumber:     raw.BlockNumber,
		TransactionHash: raw.TxHash,
		Votes:           decimal.NewFromBigInt(votes, 0),
	}, true
}
