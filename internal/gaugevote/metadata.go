package gaugevote

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const gaugeRegistryABI = `[
  {
    "name": "getGauge",
    "type": "function",
    "stateMutability": "view",
    "inputs": [{"name": "gauge", "type": "address"}],
    "outputs": [
      {"name": "active", "type": "bool"},
      {"name": "created", "type": "uint256"},
      {"name": "metadataURI", "type": "string"}
    ]
  }
]`

type ContractReader interface {
	ReadContract(ctx context.Context, addr common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error)
}

type MetadataClient interface {
	GetJSON(ctx context.Context, uri string, v any) error
}

type gaugeMetadata struct {
	Name string `json:"name"`
}

// ChainGaugeMetadata resolves gauge titles from the on-chain registry and
// its pinned metadata documents.
type ChainGaugeMetadata struct {
	reader   ContractReader
	metadata MetadataClient
	registry common.Address

	parsedABI abi.ABI
}

func NewChainGaugeMetadata(reader ContractReader, metadata MetadataClient, registry string) (*ChainGaugeMetadata, error) {
	parsed, err := abi.JSON(strings.NewReader(gaugeRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("parse gauge registry abi: %w", err)
	}

	return &ChainGaugeMetadata{
		reader:    reader,
		metadata:  metadata,
		registry:  common.HexToAddress(registry),
		parsedABI: parsed,
	}, nil
}

func (m *ChainGaugeMetadata) GaugeTitle(ctx context.Context, gauge common.Address) (string, error) {
	vals, err := m.reader.ReadContract(ctx, m.registry, m.parsedABI, "getGauge", gauge)
	if err != nil {
		return "", fmt.Errorf("read gauge %s: %w", gauge.Hex(), err)
	}

	if len(vals) != 3 {
		return "", fmt.Errorf("unexpected getGauge arity %d", len(vals))
	}

	uri, ok := vals[2].(string)
	if !ok || uri == "" {
		return "", fmt.Errorf("gauge %s has no metadata uri", gauge.Hex())
	}

	var meta gaugeMetadata
	if err := m.metadata.GetJSON(ctx, uri, &meta); err != nil {
		return "", fmt.Errorf("fetch gauge metadata: %w", err)
	}

	if meta.Name == "" {
		return "", fmt.Errorf("gauge %s metadata has no name", gauge.Hex())
	}

	return meta.Name, nil
}
