package gaugevote

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type EventName string

const (
	EventVoted EventName = "Voted"
	EventReset EventName = "Reset"
)

// Event is a single on-chain gauge vote occurrence. Events are append-only
// and immutable; the chain is the source of truth and this engine only
// reads and folds them.
type Event struct {
	Name EventName `json:"name"`

	TokenID        string         `json:"token_id"`
	Voter          common.Address `json:"voter"`
	Gauge          common.Address `json:"gauge"`
	Epoch          uint64         `json:"epoch"`
	VotingContract common.Address `json:"voting_contract"`

	Timestamp       uint64      `json:"timestamp"`
	LogIndex        uint        `json:"log_index"`
	BlockNumber     uint64      `json:"block_number"`
	TransactionHash common.Hash `json:"transaction_hash"`

	// Zero for Reset events.
	Votes decimal.Decimal `json:"votes"`
}

type VoterVotes struct {
	Voter common.Address  `json:"voter"`
	Votes decimal.Decimal `json:"votes"`
}

// Summary is the derived per-gauge view. It is recomputed from the event
// set on every query and cached, never treated as authoritative.
type Summary struct {
	Gauge      common.Address  `json:"gauge"`
	Title      string          `json:"title"`
	Epoch      *uint64         `json:"epoch,omitempty"`
	TotalVotes decimal.Decimal `json:"total_votes"`
	Votes      []VoterVotes    `json:"votes"`
}

// PlaceholderTitle is used when gauge metadata cannot be resolved.
const PlaceholderTitle = "Unknown gauge"
