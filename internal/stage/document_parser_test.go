package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govhub-labs/govstate-storage/pkg/sdk/ipfs"
)

type fakeArchive struct {
	docs []ipfs.Document
	err  error
}

func (f *fakeArchive) GetDirectory(_ context.Context, _ string) ([]ipfs.Document, error) {
	return f.docs, f.err
}

const draftDocument = `| PIP | Title | Author | Date |
|---|---|---|---|
| GOV-7 | Treasury diversification | alice, bob | 2024-04-02 |

## Abstract

Diversify 10% of the treasury into stables.

## Motivation

Volatility.`

func TestUnitArchiveParserParsesStageDocument(t *testing.T) {
	archive := &fakeArchive{docs: []ipfs.Document{
		{Link: "https://archive.example.org/proposals/drafts/GOV-7.md", RawText: draftDocument},
	}}
	parser := NewArchiveParser(archive, "proposals/drafts", TypeDraft)

	stages, err := parser.FetchStages(context.Background())
	require.NoError(t, err)
	require.Len(t, stages, 1)

	st := stages[0]
	require.Equal(t, TypeDraft, st.Type)
	require.Equal(t, "GOV-7", st.ExternalKey)
	require.Equal(t, "Treasury diversification", st.Title)
	require.Equal(t, StatusAccepted, st.Status)
	require.Equal(t, ProposalActive, st.OverallStatus)
	require.Equal(t, []Creator{{Name: "alice"}, {Name: "bob"}}, st.Creators)
	require.Contains(t, st.Body, "Diversify 10% of the treasury")
	require.Equal(t, "2024-04-02", st.CreatedAt.Format("2006-01-02"))
	require.Equal(t, "Draft document", st.Resources[0].Name)
}

func TestUnitArchiveParserSkipsNonStageDocuments(t *testing.T) {
	archive := &fakeArchive{docs: []ipfs.Document{
		{Link: "https://archive.example.org/proposals/drafts/README.md", RawText: "# Index\n\nNot a proposal."},
		{Link: "https://archive.example.org/proposals/drafts/GOV-8.md", RawText: draftDocument},
		{Link: "https://archive.example.org/proposals/drafts/short.md", RawText: "| one line"},
	}}
	parser := NewArchiveParser(archive, "proposals/drafts", TypeDraft)

	stages, err := parser.FetchStages(context.Background())
	require.NoError(t, err)
	require.Len(t, stages, 1)
	require.Equal(t, "GOV-8", stages[0].ExternalKey)
}

func TestUnitArchiveParserBodyMarkerMissing(t *testing.T) {
	raw := "| PIP | Title |\n|---|---|\n| GOV-9 | No body |\n\nFree text without marker."
	archive := &fakeArchive{docs: []ipfs.Document{
		{Link: "https://archive.example.org/proposals/drafts/GOV-9.md", RawText: raw},
	}}
	parser := NewArchiveParser(archive, "proposals/drafts", TypeDraft)

	stages, err := parser.FetchStages(context.Background())
	require.NoError(t, err)
	require.Len(t, stages, 1)
	require.Empty(t, stages[0].Body)
}

func TestUnitExternalKeyFromLink(t *testing.T) {
	for name, tc := range map[string]struct {
		link     string
		expected string
	}{
		"markdown file":     {link: "https://archive.example.org/drafts/GOV-7.md", expected: "GOV-7"},
		"trailing slash":    {link: "https://vote.example.org/proposal/0xabc/", expected: "0xabc"},
		"plain segment":     {link: "https://vote.example.org/#/space/proposal/0xabc123", expected: "0xabc123"},
		"empty":             {link: "", expected: ""},
		"extensionless dot": {link: "https://x.org/.hidden", expected: ".hidden"},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, ExternalKeyFromLink(tc.link))
		})
	}
}
