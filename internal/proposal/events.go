package proposal

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const subjectProposalUpdated = "govstate.proposal.updated"

type proposalUpdatedEvent struct {
	ProposalID string    `json:"proposal_id"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Events publishes proposal snapshot changes. Publishing is best effort: a
// broker hiccup never fails the write that triggered it.
type Events struct {
	nc *nats.Conn
}

func NewEvents(nc *nats.Conn) *Events {
	return &Events{
		nc: nc,
	}
}

func (e *Events) PublishUpdated(p *Proposal) {
	if e == nil || e.nc == nil {
		return
	}

	payload, err := json.Marshal(proposalUpdatedEvent{
		ProposalID: p.ID,
		Status:     string(p.Status),
		UpdatedAt:  time.Now(),
	})
	if err != nil {
		log.Error().Err(err).Str("proposal", p.ID).Msg("marshal proposal event")

		return
	}

	if err := e.nc.Publish(subjectProposalUpdated, payload); err != nil {
		log.Error().Err(err).Str("proposal", p.ID).Msg("publish proposal event")
	}
}
