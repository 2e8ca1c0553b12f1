package browse

import (
	"context"
	"regexp"
	"strconv"

	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/core"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/query"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/scrape"

	mapset "github.com/deckarep/golang-set/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var jobRowRegexp = regexp.MustCompile(jobRowPattern)

// the sole job title the portal renders when a search has no results,
// distinct from an ordinary end of pages
const noMatchesTitle = "No Matches Found"

type SearchOptions struct {
	// stop after this many rows, 0 means no limit
	Limit   int
	Filters *query.Filters
}

// JobPages walks a job search page by page. The sequence is lazy and
// finite: the portal offers no explicit last-page signal, so pagination
// ends when a page repeats rows already seen or comes back empty. A
// JobPages is not restartable, each search begins a fresh scrape.
type JobPages struct {
	client  Client
	q       *query.JobSearchQuery
	opts    SearchOptions
	pageUrl string

	seen  mapset.Set[string]
	total int

	started bool
	done    bool
}

// SearchJobs begins a job search, seeding a query with the session's
// current state tokens.
func (c Client) SearchJobs(ctx context.Context, opts SearchOptions) (*JobPages, error) {
	ctx, span := tracer.Start(ctx, "client:SearchJobs")
	defer span.End()

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return nil, err
	}

	pageUrl, err := c.Core.FolderUrl("jobs")
	if err != nil {
		return nil, err
	}
	tokens, _, err := c.Core.PageTokens(ctx, pageUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to harvest state tokens")
		return nil, err
	}

	q := query.New()
	q.Add(core.SidField, tokens.Sid)
	q.Add(core.StateNumField, strconv.Itoa(tokens.StateNum))

	return &JobPages{
		client:  c,
		q:       q,
		opts:    opts,
		pageUrl: pageUrl,
		seen:    mapset.NewSet[string](),
	}, nil
}

// Query exposes the search's query so extraction callers can read the
// state tokens it carries.
func (p *JobPages) Query() *query.JobSearchQuery {
	return p.q
}

// Total is the number of rows seen across all pages so far.
func (p *JobPages) Total() int {
	return p.total
}

// Next fetches the next page of results. It returns nil once pagination
// is complete: when a page comes back empty, repeats rows already seen,
// or the portal's no-matches sentinel appears. When a limit is set the
// final page is truncated so the cumulative row count meets it exactly,
// repeated identical pages never yield duplicates.
func (p *JobPages) Next(ctx context.Context) ([]*scrape.Record, error) {
	if p.done {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "pages:Next")
	defer span.End()

	if p.started {
		p.q.Paginate(false)
	}
	p.started = true

	link, err := p.q.MakeQuery(p.pageUrl, p.opts.Filters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build query")
		return nil, err
	}

	doc, _, err := p.client.Core.Document(ctx, link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch result page")
		return nil, err
	}

	rows := scrape.ParseTable(doc, jobRowRegexp)
	if len(rows) == 0 {
		p.done = true
		return nil, nil
	}
	if p.seen.Contains(rows[0].Fingerprint()) {
		// the portal re-renders the last page when paged past the end
		p.done = true
		return nil, nil
	}
	if rows[0].Get("Job Title") == noMatchesTitle {
		p.done = true
		return nil, nil
	}

	for _, row := range rows {
		p.seen.Add(row.Fingerprint())
	}

	if p.opts.Limit > 0 && p.total+len(rows) >= p.opts.Limit {
		rows = rows[:p.opts.Limit-p.total]
		p.total += len(rows)
		p.done = true
		span.SetAttributes(attribute.Int("rows", len(rows)))
		return rows, nil
	}

	p.total += len(rows)
	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows, nil
}

// ListJobs searches for jobs and collects every page of results.
func (c Client) ListJobs(ctx context.Context, opts SearchOptions) ([]*scrape.Record, error) {
	ctx, span := tracer.Start(ctx, "client:ListJobs")
	defer span.End()

	pages, err := c.SearchJobs(ctx, opts)
	if err != nil {
		return nil, err
	}

	var jobs []*scrape.Record
	for {
		page, err := pages.Next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "pagination failed")
			return nil, err
		}
		if page == nil {
			break
		}
		jobs = append(jobs, page...)
	}
	return jobs, nil
}

// Match is the result of a single-match job search: the matched record,
// its resolved row index across all pages seen, and the query holding
// the state tokens needed to act on it.
type Match struct {
	Record *scrape.Record
	Query  *query.JobSearchQuery
	Row    int
}

// FindJob runs a job search in extraction mode, stopping at the first
// row satisfying the predicate. Returns nil when the search exhausts
// without a match.
func (c Client) FindJob(ctx context.Context, filters *query.Filters, predicate func(*scrape.Record) bool) (*Match, error) {
	ctx, span := tracer.Start(ctx, "client:FindJob")
	defer span.End()

	pages, err := c.SearchJobs(ctx, SearchOptions{Filters: filters})
	if err != nil {
		return nil, err
	}

	for {
		page, err := pages.Next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "pagination failed")
			return nil, err
		}
		if page == nil {
			return nil, nil
		}

		for i, record := range page {
			if !predicate(record) {
				continue
			}
			row := pages.Total() - len(page) + i
			q := pages.Query()
			q.SetRow(row)
			span.SetAttributes(attribute.Int("row", row))
			return &Match{Record: record, Query: q, Row: row}, nil
		}
	}
}
