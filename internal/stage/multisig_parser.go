package stage

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// multisigABI covers the read surface of the council multisig contract.
const multisigABI = `[
  {
    "name": "proposalCount",
    "type": "function",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "name": "getProposal",
    "type": "function",
    "stateMutability": "view",
    "inputs": [{"name": "proposalId", "type": "uint256"}],
    "outputs": [
      {"name": "executed", "type": "bool"},
      {"name": "approvals", "type": "uint16"},
      {"name": "minApprovals", "type": "uint16"},
      {"name": "emergency", "type": "bool"},
      {"name": "startDate", "type": "uint64"},
      {"name": "endDate", "type": "uint64"},
      {"name": "firstDelayStartTimestamp", "type": "uint64"},
      {"name": "confirmationEndDate", "type": "uint64"},
      {"name": "snapshotBlock", "type": "uint64"},
      {"name": "metadataURI", "type": "string"},
      {
        "name": "actions",
        "type": "tuple[]",
        "components": [
          {"name": "to", "type": "address"},
          {"name": "value", "type": "uint256"},
          {"name": "data", "type": "bytes"}
        ]
      }
    ]
  }
]`

// expectedProposalFields is the arity of the getProposal response tuple. A
// response with any other arity is "no data", not a parse error.
const expectedProposalFields = 11

type ContractReader interface {
	ReadContract(ctx context.Context, addr common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error)
}

type MetadataClient interface {
	GetJSON(ctx context.Context, uri string, v any) error
}

type rawAction struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

type proposalMetadata struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Resources   []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"resources"`
	Publishers []struct {
		Name string `json:"name"`
		Link string `json:"link"`
	} `json:"publishers"`
}

// MultisigParser reads council proposals from the multisig contract and
// produces CouncilApproval stages plus, once the confirmation window has
// opened, CouncilConfirmation siblings synthesized from the same record.
type MultisigParser struct {
	reader    ContractReader
	metadata  MetadataClient
	address   common.Address
	draftPath string
	parsedABI abi.ABI
	now       func() time.Time
}

func NewMultisigParser(reader ContractReader, metadata MetadataClient, address, draftPath string) (*MultisigParser, error) {
	parsed, err := abi.JSON(strings.NewReader(multisigABI))
	if err != nil {
		return nil, fmt.Errorf("parse multisig abi: %w", err)
	}

	return &MultisigParser{
		reader:    reader,
		metadata:  metadata,
		address:   common.HexToAddress(address),
		draftPath: draftPath,
		parsedABI: parsed,
		now:       time.Now,
	}, nil
}

func (p *MultisigParser) FetchStages(ctx context.Context) ([]Stage, error) {
	vals, err := p.reader.ReadContract(ctx, p.address, p.parsedABI, "proposalCount")
	if err != nil {
		return nil, fmt.Errorf("read proposal count: %w", err)
	}

	if len(vals) != 1 {
		return nil, fmt.Errorf("unexpected proposalCount arity %d", len(vals))
	}

	count, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected proposalCount type %T", vals[0])
	}

	var stages []Stage
	for i := int64(0); i < count.Int64(); i++ {
		recordStages, err := p.FetchProposalStages(ctx, i)
		if err != nil {
			return nil, err
		}

		stages = append(stages, recordStages...)
	}

	return stages, nil
}

// FetchProposalStages reads one on-chain record and returns its stages. An
// empty result without error means the record carried no data.
func (p *MultisigParser) FetchProposalStages(ctx context.Context, idx int64) ([]Stage, error) {
	vals, err := p.reader.ReadContract(ctx, p.address, p.parsedABI, "getProposal", big.NewInt(idx))
	if err != nil {
		return nil, fmt.Errorf("read proposal %d: %w", idx, err)
	}

	if len(vals) != expectedProposalFields {
		log.Debug().Int64("proposal", idx).Int("arity", len(vals)).Msg("multisig record has no data")

		return nil, nil
	}

	rec, ok := decodeProposalTuple(vals)
	if !ok {
		log.Warn().Int64("proposal", idx).Msg("skip malformed multisig record")

		return nil, nil
	}

	meta := p.fetchMetadata(ctx, idx, rec.metadataURI)

	approval := p.buildApproval(idx, rec, meta)
	stages := []Stage{approval}

	if conf, withConfirmation := p.buildConfirmation(approval, rec); withConfirmation {
		stages = append(stages, conf)
	}

	return stages, nil
}

type multisigRecord struct {
	executed        bool
	approvals       uint16
	minApprovals    uint16
	emergency       bool
	startDate       uint64
	endDate         uint64
	firstDelayStart uint64
	confirmationEnd uint64
	snapshotBlock   uint64
	metadataURI     string
	actions         []rawAction
}

func decodeProposalTuple(vals []any) (multisigRecord, bool) {
	var rec multisigRecord
	var ok bool

	if rec.executed, ok = vals[0].(bool); !ok {
		return rec, false
	}
	if rec.approvals, ok = vals[1].(uint16); !ok {
		return rec, false
	}
	if rec.minApprovals, ok = vals[2].(uint16); !ok {
		return rec, false
	}
	if rec.emergency, ok = vals[3].(bool); !ok {
		return rec, false
	}
	if rec.startDate, ok = vals[4].(uint64); !ok {
		return rec, false
	}
	if rec.endDate, ok = vals[5].(uint64); !ok {
		return rec, false
	}
	if rec.firstDelayStart, ok = vals[6].(uint64); !ok {
		return rec, false
	}
	if rec.confirmationEnd, ok = vals[7].(uint64); !ok {
		return rec, false
	}
	if rec.snapshotBlock, ok = vals[8].(uint64); !ok {
		return rec, false
	}
	if rec.metadataURI, ok = vals[9].(string); !ok {
		return rec, false
	}

	actions, ok := abi.ConvertType(vals[10], new([]rawAction)).(*[]rawAction)
	if !ok {
		return rec, false
	}
	rec.actions = *actions

	return rec, true
}

// fetchMetadata resolves the pinned proposal metadata. A failure degrades
// the stage to on-chain fields only; it never fails the record.
func (p *MultisigParser) fetchMetadata(ctx context.Context, idx int64, uri string) proposalMetadata {
	var meta proposalMetadata
	if uri == "" {
		return meta
	}

	if err := p.metadata.GetJSON(ctx, uri, &meta); err != nil {
		log.Warn().Err(err).Int64("proposal", idx).Msg("fetch proposal metadata")

		return proposalMetadata{}
	}

	return meta
}

func (p *MultisigParser) buildApproval(idx int64, rec multisigRecord, meta proposalMetadata) Stage {
	signaling := len(rec.actions) == 0
	in := WindowInput{
		Now:          p.now(),
		StartDate:    unixTime(int64(rec.startDate)),
		EndDate:      unixTime(int64(rec.endDate)),
		Executed:     rec.executed,
		CountReached: rec.approvals >= rec.minApprovals,
		IsSignaling:  signaling,
	}

	var status Status
	var overall ProposalStatus
	if rec.emergency {
		status, overall = EmergencyApprovalStatus(in)
	} else {
		status, overall = ApprovalStatus(in)
	}

	title := meta.Title
	if title == "" {
		title = fmt.Sprintf("Council proposal #%d", idx)
	}

	resources := make([]Resource, 0, len(meta.Resources))
	var bindings []Binding
	for _, res := range meta.Resources {
		resources = append(resources, Resource{Name: res.Name, Link: res.URL})

		if p.draftPath != "" && strings.Contains(res.URL, p.draftPath) {
			bindings = append(bindings, Binding{
				TargetType:  TypeDraft,
				ExternalKey: ExternalKeyFromLink(res.URL),
			})
		}
	}

	creators := make([]Creator, 0, len(meta.Publishers))
	for _, pub := range meta.Publishers {
		creators = append(creators, Creator{Name: pub.Name, Link: pub.Link})
	}

	actions := make([]Action, 0, len(rec.actions))
	for _, act := range rec.actions {
		actions = append(actions, Action{
			To:    act.To.Hex(),
			Value: act.Value.String(),
			Data:  "0x" + hex.EncodeToString(act.Data),
		})
	}

	return Stage{
		Type:          TypeCouncilApproval,
		ExternalKey:   fmt.Sprintf("multisig-%d", idx),
		Title:         title,
		Description:   meta.Summary,
		Body:          meta.Description,
		Status:        status,
		OverallStatus: overall,
		Creators:      creators,
		Resources:     resources,
		Bindings:      bindings,
		Actions:       actions,
		Voting: &Voting{
			ProviderID:    fmt.Sprintf("multisig-%d", idx),
			StartDate:     in.StartDate,
			EndDate:       in.EndDate,
			MinApprovals:  uint64(rec.minApprovals),
			Approvals:     uint64(rec.approvals),
			SnapshotBlock: strconv.FormatUint(rec.snapshotBlock, 10),
		},
		IsEmergency: rec.emergency,
		IsSignaling: signaling,
		Executed:    rec.executed,
		CreatedAt:   in.StartDate,
	}
}

// buildConfirmation synthesizes the confirmation sibling of an approval
// stage. An unset confirmation window means the stage is omitted entirely.
func (p *MultisigParser) buildConfirmation(approval Stage, rec multisigRecord) (Stage, bool) {
	in := WindowInput{
		Now:          p.now(),
		StartDate:    unixTime(int64(rec.firstDelayStart)),
		EndDate:      unixTime(int64(rec.confirmationEnd)),
		Executed:     rec.executed,
		CountReached: rec.approvals >= rec.minApprovals,
		IsSignaling:  approval.IsSignaling,
	}

	status, overall, ok := ConfirmationStatus(in)
	if !ok {
		return Stage{}, false
	}

	conf := Stage{
		Type:          TypeCouncilConfirmation,
		ExternalKey:   approval.ExternalKey,
		Title:         approval.Title,
		Status:        status,
		OverallStatus: overall,
		Creators:      approval.Creators,
		Voting: &Voting{
			ProviderID:   approval.ExternalKey,
			StartDate:    in.StartDate,
			EndDate:      in.EndDate,
			MinApprovals: uint64(rec.minApprovals),
			Approvals:    uint64(rec.approvals),
		},
		IsEmergency: rec.emergency,
		IsSignaling: approval.IsSignaling,
		Executed:    rec.executed,
		CreatedAt:   in.StartDate,
	}

	return conf, true
}
