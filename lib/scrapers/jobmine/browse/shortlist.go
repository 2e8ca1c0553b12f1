package browse

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/core"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/query"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/scrape"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrShortlistAddFailed     = fmt.Errorf("Failed to add the job to the shortlist.")
	ErrShortlistRemovalFailed = fmt.Errorf("Failed to remove the job from the shortlist.")
)

// Record keys on the job search result and shortlist tables.
const (
	jobIdKey     = "Job Identifier"
	jobTitleKey  = "Job Title"
	employerKey  = "Employer"
	shortlistKey = "Short List"

	onShortList = "On Short List"
)

// AddToShortlist shortlists the job with the given id. The job is
// located through a single-match search narrowed by the posting's own
// title and employer, optional extra filters narrow it further. Returns
// false without issuing a mutating request when the job cannot be found
// or is already shortlisted.
func (c Client) AddToShortlist(ctx context.Context, jobId string, filters *query.Filters) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:AddToShortlist")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", jobId))

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return false, err
	}

	detail, err := c.ViewJob(ctx, jobId)
	if err != nil {
		return false, err
	}
	if filters == nil {
		filters = &query.Filters{}
	}
	filters.Title = detail.Get(jobTitleKey)
	filters.Employer = detail.Get(employerKey)

	match, err := c.FindJob(ctx, filters, func(record *scrape.Record) bool {
		return record.Get(jobIdKey) == jobId
	})
	if err != nil {
		return false, err
	}
	if match == nil {
		span.AddEvent("job not found")
		return false, nil
	}
	if match.Record.Get(shortlistKey) == onShortList {
		span.AddEvent("job already shortlisted")
		return false, nil
	}

	link, err := c.Core.FolderUrl("jobs")
	if err != nil {
		return false, err
	}

	state, err := strconv.Atoi(match.Query.Get(core.StateNumField))
	if err != nil {
		return false, fmt.Errorf("malformed state counter on query: %w", err)
	}

	values := url.Values{}
	values.Set(core.ActionField, fmt.Sprintf("UW_CO_SLIST_HL$%d", match.Row))
	values.Set(core.SidField, match.Query.Get(core.SidField))
	values.Set(core.StateNumField, strconv.Itoa(state+1))

	_, res, err := c.Core.Document(ctx, link+"?"+values.Encode())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to issue shortlist action")
		return false, err
	}
	if core.Unavailable(res.Body()) {
		span.SetStatus(codes.Error, ErrShortlistAddFailed.Error())
		return false, ErrShortlistAddFailed
	}
	return true, nil
}

// RemoveFromShortlist removes the job with the given id from the
// shortlist, verified by confirming the list shrank. Returns false when
// the job is not on the shortlist.
func (c Client) RemoveFromShortlist(ctx context.Context, jobId string) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:RemoveFromShortlist")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", jobId))

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return false, err
	}

	shortlisted, err := c.ListShortlist(ctx)
	if err != nil {
		return false, err
	}

	for index, job := range shortlisted {
		if job.Get(jobIdKey) != jobId {
			continue
		}

		link, err := c.Core.FolderUrl("shortlist")
		if err != nil {
			return false, err
		}
		tokens, _, err := c.Core.PageTokens(ctx, link)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to harvest state tokens")
			return false, err
		}

		values := tokens.Values()
		values.Set(core.ActionField, fmt.Sprintf("UW_CO_STUJOBLST$delete$%d$$0", index))
		_, _, err = c.Core.Document(ctx, link+"?"+values.Encode())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to issue delete action")
			return false, err
		}

		_, err = c.Core.Save(ctx, link, tokens, url.Values{})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to save transaction")
			return false, err
		}

		after, err := c.ListShortlist(ctx)
		if err != nil {
			return false, err
		}
		if len(after) == len(shortlisted) {
			span.SetStatus(codes.Error, ErrShortlistRemovalFailed.Error())
			return false, ErrShortlistRemovalFailed
		}
		return true, nil
	}

	return false, nil
}
