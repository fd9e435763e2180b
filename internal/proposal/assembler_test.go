package proposal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/govhub-labs/govstate-storage/internal/stage"
)

func TestResolveID(t *testing.T) {
	for name, tc := range map[string]struct {
		in       []stage.Stage
		expected string
	}{
		"draft key wins over later stages": {
			in: []stage.Stage{
				{Type: stage.TypeCouncilApproval, ExternalKey: "multisig-7"},
				{Type: stage.TypeDraft, ExternalKey: "gov-12"},
				{Type: stage.TypeCommunityVoting, ExternalKey: "0xabc"},
			},
			expected: "gov-12",
		},
		"report key beats council key": {
			in: []stage.Stage{
				{Type: stage.TypeTransparencyReport, ExternalKey: "gov-12"},
				{Type: stage.TypeCouncilApproval, ExternalKey: "multisig-7"},
			},
			expected: "gov-12",
		},
		"voting key is the last resort": {
			in: []stage.Stage{
				{Type: stage.TypeCouncilConfirmation, ExternalKey: "multisig-7-confirmation"},
				{Type: stage.TypeCommunityVoting, ExternalKey: "0xabc"},
			},
			expected: "0xabc",
		},
		"empty keys are skipped": {
			in: []stage.Stage{
				{Type: stage.TypeDraft},
				{Type: stage.TypeCouncilApproval, ExternalKey: "multisig-7"},
			},
			expected: "multisig-7",
		},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, resolveID(tc.in))
		})
	}
}

func TestResolveIDFallback(t *testing.T) {
	group := []stage.Stage{{Type: stage.TypeCouncilConfirmation, Title: "Budget"}}

	id := resolveID(group)
	require.True(t, strings.HasPrefix(id, "unknown-"))
	require.Len(t, id, len("unknown-")+8)

	// The derived id must be stable across rebuilds of the same group.
	require.Equal(t, id, resolveID(group))

	other := resolveID([]stage.Stage{{Type: stage.TypeCouncilConfirmation, Title: "Treasury"}})
	require.NotEqual(t, id, other)
}

func TestResolvePublisher(t *testing.T) {
	draftAuthor := stage.Creator{Name: "alice", Link: "https://forum/alice"}
	council := stage.Creator{Name: "council", Link: "https://council"}

	for name, tc := range map[string]struct {
		in       []stage.Stage
		expected Publishers
	}{
		"draft author by default": {
			in: []stage.Stage{
				{Type: stage.TypeDraft, Creators: []stage.Creator{draftAuthor}},
				{Type: stage.TypeCouncilApproval, Creators: []stage.Creator{council}},
			},
			expected: Publishers{{Name: "alice", Link: "https://forum/alice"}},
		},
		"council creator on emergency": {
			in: []stage.Stage{
				{Type: stage.TypeDraft, Creators: []stage.Creator{draftAuthor}},
				{Type: stage.TypeCouncilApproval, IsEmergency: true, Creators: []stage.Creator{council}},
			},
			expected: Publishers{{Name: "council", Link: "https://council"}},
		},
		"council fallback when the draft names nobody": {
			in: []stage.Stage{
				{Type: stage.TypeDraft},
				{Type: stage.TypeCouncilApproval, Creators: []stage.Creator{council}},
			},
			expected: Publishers{{Name: "council", Link: "https://council"}},
		},
		"unknown when no stage has creators": {
			in: []stage.Stage{
				{Type: stage.TypeCommunityVoting},
			},
			expected: Publishers{UnknownPublisher},
		},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, resolvePublisher(tc.in))
		})
	}
}

func TestAssembleResources(t *testing.T) {
	a := NewAssembler(false)

	p := a.Assemble([]stage.Stage{
		{
			Type: stage.TypeDraft,
			Resources: []stage.Resource{
				{Name: "Forum Thread", Link: "https://forum/old"},
				{Name: "Budget", Link: "https://sheet"},
			},
		},
		{
			Type: stage.TypeCouncilApproval,
			Resources: []stage.Resource{
				{Name: "forum thread", Link: "https://forum/new"},
			},
		},
	})

	// Later stages claim resource names case-insensitively. The draft keeps
	// only what the council stage did not claim.
	require.Equal(t, Resources{
		{Name: "Budget", Link: "https://sheet"},
		{Name: "forum thread", Link: "https://forum/new"},
	}, p.Resources)

	require.Len(t, p.Stages, 2)
	require.Equal(t, Resources{{Name: "Budget", Link: "https://sheet"}}, p.Stages[0].Resources)
	require.Equal(t, Resources{{Name: "forum thread", Link: "https://forum/new"}}, p.Stages[1].Resources)
}

func TestAssembleContent(t *testing.T) {
	a := NewAssembler(false)

	p := a.Assemble([]stage.Stage{
		{
			Type:        stage.TypeDraft,
			ExternalKey: "gov-3",
			Title:       "Draft title",
			Body:        "draft body",
			CreatedAt:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Type:        stage.TypeCouncilApproval,
			ExternalKey: "multisig-3",
			Title:       "Council title",
			Description: "council summary",
			IsEmergency: true,
			Actions:     []stage.Action{{To: "0x01", Value: "0", Data: "0x"}},
			CreatedAt:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	})

	require.Equal(t, "gov-3", p.ID)
	require.Equal(t, "Council title", p.Title)
	require.Equal(t, "council summary", p.Description)
	require.True(t, p.IsEmergency)
	require.Len(t, p.Actions, 1)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), p.AuthoredAt)

	// Stage rows keep canonical order and inherit the proposal id.
	require.Equal(t, stage.TypeDraft, p.Stages[0].Type)
	require.Equal(t, stage.TypeCouncilApproval, p.Stages[1].Type)
	for i, row := range p.Stages {
		require.Equal(t, p.ID, row.ProposalID)
		require.Equal(t, i, row.Position)
	}
}
