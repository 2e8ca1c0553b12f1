package browse

import (
	"context"
	"fmt"
	"strings"

	"github.com/hkpeprah/jerbminer/lib/textutil"

	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/scrape"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DescriptionKey holds the free-text posting body in a job detail
// record, alongside the colon-keyed metadata fields.
const DescriptionKey = "Description"

// the literal boundary between the metadata block and the posting body
const descriptionBoundary = "Job Description"

// ViewJob fetches a job posting's detail page and parses it into a
// structured record. Built fresh per call, never cached.
func (c Client) ViewJob(ctx context.Context, jobId string) (*scrape.Record, error) {
	ctx, span := tracer.Start(ctx, "client:ViewJob")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", jobId))

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return nil, err
	}

	link, err := c.Core.FolderUrl("details")
	if err != nil {
		return nil, err
	}
	doc, _, err := c.Core.Document(ctx, fmt.Sprintf("%s?UW_CO_JOB_ID=%s", link, jobId))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch detail page")
		return nil, err
	}

	container := doc.Find("div#PAGECONTAINER")
	if len(container.Nodes) == 0 {
		span.SetStatus(codes.Error, "detail page has no content container")
		return nil, fmt.Errorf("job detail page has no content container")
	}

	return ParseJobDetail(container.Text()), nil
}

// ParseJobDetail parses the text of a job posting page. Whitespace runs
// collapse into newlines, the text splits at the "Job Description"
// boundary into a metadata block and the free-text body. In the
// metadata block a line containing a colon starts a key, following
// lines collect as its values: none maps to an empty string, one to a
// scalar, several to an ordered list.
func ParseJobDetail(raw string) *scrape.Record {
	raw = textutil.CollapseRuns(raw)

	information, description, found := strings.Cut(raw, descriptionBoundary)
	if !found {
		information, description = raw, ""
	}

	record := scrape.NewRecord()

	key := ""
	flushed := true
	for _, line := range strings.Split(information, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		head, rest, isKey := strings.Cut(line, ":")
		if isKey {
			if !flushed {
				record.Set(key, "")
			}
			key = strings.TrimSpace(head)
			flushed = false
			rest = strings.TrimSpace(rest)
			if rest != "" {
				record.Append(key, rest)
				flushed = true
			}
			continue
		}
		if key == "" {
			continue
		}
		record.Append(key, line)
		flushed = true
	}
	if !flushed {
		record.Set(key, "")
	}

	description = strings.ReplaceAll(description, "\u00a0", "")
	description = strings.ReplaceAll(description, "\r", "\n")
	description = textutil.FilterBlankLines(description)
	record.Set(DescriptionKey, strings.TrimSpace(description))

	return record
}
