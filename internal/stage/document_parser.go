package stage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/govhub-labs/govstate-storage/pkg/sdk/ipfs"
)

// bodyMarker is the section heading the document body starts at. Everything
// above it is the metadata header table.
const bodyMarker = "## Abstract"

type ArchiveClient interface {
	GetDirectory(ctx context.Context, path string) ([]ipfs.Document, error)
}

// ArchiveParser turns markdown documents of one archive path into stages of
// a single type: the drafts path yields Draft stages, the reports path
// TransparencyReport stages.
type ArchiveParser struct {
	client    ArchiveClient
	path      string
	stageType Type
}

func NewArchiveParser(client ArchiveClient, path string, stageType Type) *ArchiveParser {
	return &ArchiveParser{
		client:    client,
		path:      path,
		stageType: stageType,
	}
}

func (p *ArchiveParser) FetchStages(ctx context.Context) ([]Stage, error) {
	docs, err := p.client.GetDirectory(ctx, p.path)
	if err != nil {
		return nil, fmt.Errorf("get directory %s: %w", p.path, err)
	}

	stages := make([]Stage, 0, len(docs))
	for _, doc := range docs {
		st, ok := p.parseDocument(doc)
		if !ok {
			log.Warn().Str("link", doc.Link).Msg("skip non-stage document")

			continue
		}

		stages = append(stages, st)
	}

	return stages, nil
}

// parseDocument extracts one stage from a markdown document. The first
// three lines must each begin with a pipe (field names, separator, values);
// anything else is not a stage document and is skipped rather than treated
// as an error.
func (p *ArchiveParser) parseDocument(doc ipfs.Document) (Stage, bool) {
	lines := strings.Split(doc.RawText, "\n")
	if len(lines) < 3 {
		return Stage{}, false
	}

	for _, line := range lines[:3] {
		if !strings.HasPrefix(strings.TrimSpace(line), "|") {
			return Stage{}, false
		}
	}

	header := parseHeaderTable(lines[0], lines[2])

	key := ExternalKeyFromLink(doc.Link)
	if key == "" {
		return Stage{}, false
	}

	st := Stage{
		Type:        p.stageType,
		ExternalKey: key,
		Link:        doc.Link,
		Title:       header["title"],
		Description: header["description"],
		Body:        documentBody(doc.RawText),
		// A published document means the phase itself is complete; the
		// proposal as a whole is still in flight.
		Status:        StatusAccepted,
		OverallStatus: ProposalActive,
		Creators:      parseAuthors(header["author"]),
		Resources: []Resource{
			{Name: resourceName(p.stageType), Link: doc.Link},
		},
		CreatedAt: parseHeaderDate(header["date"]),
	}

	return st, true
}

func parseHeaderTable(names, values string) map[string]string {
	fields := splitHeaderRow(names)
	vals := splitHeaderRow(values)

	header := make(map[string]string, len(fields))
	for i, name := range fields {
		if i >= len(vals) {
			break
		}

		header[strings.ToLower(name)] = vals[i]
	}

	return header
}

func splitHeaderRow(row string) []string {
	parts := strings.Split(strings.Trim(strings.TrimSpace(row), "|"), "|")

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}

	return out
}

func documentBody(raw string) string {
	idx := strings.Index(raw, bodyMarker)
	if idx < 0 {
		return ""
	}

	return strings.TrimSpace(raw[idx:])
}

func parseAuthors(raw string) []Creator {
	if raw == "" {
		return nil
	}

	var creators []Creator
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		creators = append(creators, Creator{Name: name})
	}

	return creators
}

func parseHeaderDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func resourceName(t Type) string {
	if t == TypeTransparencyReport {
		return "Transparency report"
	}

	return "Draft document"
}
