package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govhub-labs/govstate-storage/pkg/sdk"
	"github.com/govhub-labs/govstate-storage/pkg/sdk/snapshot"
)

type fakeVotingClient struct {
	proposals []snapshot.Proposal
	err       error
}

func (f *fakeVotingClient) GetProposals(_ context.Context, _ string) ([]snapshot.Proposal, error) {
	return f.proposals, f.err
}

func (f *fakeVotingClient) GetProposal(_ context.Context, id string) (*snapshot.Proposal, error) {
	for _, p := range f.proposals {
		if p.ID == id {
			return &p, nil
		}
	}

	return nil, sdk.ErrNotFound
}

func TestUnitNormalizeChoice(t *testing.T) {
	for name, tc := range map[string]struct {
		label    string
		expected string
	}{
		"accept":         {label: "Accept", expected: ChoiceYes},
		"for":            {label: "FOR", expected: ChoiceYes},
		"yay":            {label: "yay", expected: ChoiceYes},
		"veto":           {label: "Veto", expected: ChoiceNo},
		"against":        {label: "against", expected: ChoiceNo},
		"padded":         {label: "  no  ", expected: ChoiceNo},
		"unknown passes": {label: "Abstain", expected: "Abstain"},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, NormalizeChoice(tc.label))
		})
	}
}

func TestUnitSnapshotParserClosedVote(t *testing.T) {
	client := &fakeVotingClient{proposals: []snapshot.Proposal{
		{
			ID:      "0xabc123",
			Title:   "Enable gauge rewards",
			Choices: []string{"Accept", "Reject", "Abstain"},
			Scores:  []float64{120.5, 80, 44},
			State:   snapshot.StateClosed,
			Start:   1714521600,
			End:     1715126400,
			Votes:   42,
			Link:    "https://vote.example.org/#/space/proposal/0xabc123",
		},
	}}
	parser := NewSnapshotParser(client, "space.eth")

	stages, err := parser.FetchStages(context.Background())
	require.NoError(t, err)
	require.Len(t, stages, 1)

	st := stages[0]
	require.Equal(t, TypeCommunityVoting, st.Type)
	require.Equal(t, "0xabc123", st.ExternalKey)
	require.Equal(t, StatusAccepted, st.Status)
	require.Equal(t, ProposalAccepted, st.OverallStatus)
	require.NotNil(t, st.Voting)
	require.Equal(t, 42, st.Voting.TotalVotes)
	require.Equal(t, ChoiceYes, st.Voting.Scores[0].Choice)
	require.Equal(t, ChoiceNo, st.Voting.Scores[1].Choice)
	require.Equal(t, "Abstain", st.Voting.Scores[2].Choice)
}

func TestUnitSnapshotParserSkipsMalformedRecords(t *testing.T) {
	client := &fakeVotingClient{proposals: []snapshot.Proposal{
		{ID: "", Choices: []string{"Accept"}},
		{ID: "0x1", Choices: nil},
		{ID: "0x2", Choices: []string{"Accept", "Reject"}, State: snapshot.StateActive},
	}}
	parser := NewSnapshotParser(client, "space.eth")

	stages, err := parser.FetchStages(context.Background())
	require.NoError(t, err)
	require.Len(t, stages, 1)
	require.Equal(t, "0x2", stages[0].ExternalKey)
	require.Equal(t, StatusActive, stages[0].Status)
}

func TestUnitSnapshotParserFetchStage(t *testing.T) {
	client := &fakeVotingClient{proposals: []snapshot.Proposal{
		{ID: "0x9", Choices: []string{"For", "Against"}, State: snapshot.StatePending},
	}}
	parser := NewSnapshotParser(client, "space.eth")

	st, err := parser.FetchStage(context.Background(), "0x9")
	require.NoError(t, err)
	require.Equal(t, StatusPending, st.Status)

	_, err = parser.FetchStage(context.Background(), "0xmissing")
	require.ErrorIs(t, err, sdk.ErrNotFound)
}
