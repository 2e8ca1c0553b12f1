package browse

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/core"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/scrape"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/jobmine/browse")

var (
	ErrApplicationNotFound      = fmt.Errorf("Given id does not correspond to a valid application.")
	ErrApplicationRemovalFailed = fmt.Errorf("Failed to remove the application.")
)

// Row patterns for the portal's list pages. The active and inactive
// application patterns are disjoint: an active row id never contains
// the bare trUW_CO_APPS prefix.
const (
	jobRowPattern          = `trUW_CO_JOBRES_VW\$[0-9]+_row[0-9]+`
	activeAppsRowPattern   = `trUW_CO_STU_APPS`
	inactiveAppsRowPattern = `trUW_CO_APPS`
	shortlistRowPattern    = `trUW_CO_STUJOBLST`
	profileRowPattern      = `trUW_CO_STDTERMVW`
	documentsRowPattern    = `trUW_CO_STU_DOCS`
	rankingsRowPattern     = `trUW_CO_STU_RNK`
)

// Interview list pages render one of four distinct row families.
type InterviewKind string

const (
	InterviewNormal    InterviewKind = "normal"
	InterviewGroup     InterviewKind = "group"
	InterviewSpecial   InterviewKind = "special"
	InterviewCancelled InterviewKind = "cancelled"
)

var interviewRowPatterns = map[InterviewKind]string{
	InterviewNormal:    `trUW_CO_STUD_INTV\$`,
	InterviewGroup:     `trUW_CO_GRP_STU_V`,
	InterviewSpecial:   `trUW_CO_NSCHD_JOB\$`,
	InterviewCancelled: `UW_CO_SINT_CANC\$`,
}

// Client drives the portal's authenticated list and mutation pages.
// A client owns a single portal session and is not safe for concurrent
// use: the portal's state tokens are single-threaded by construction.
type Client struct {
	Core *core.Client
}

func NewClient(coreClient *core.Client) Client {
	return Client{Core: coreClient}
}

// ListApplications lists the user's co-op applications. Active and
// inactive applications live in separate tables on the same page and
// never overlap.
func (c Client) ListApplications(ctx context.Context, active bool) ([]*scrape.Record, error) {
	ctx, span := tracer.Start(ctx, "client:ListApplications")
	defer span.End()
	span.SetAttributes(attribute.Bool("active", active))

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return nil, err
	}

	pattern := inactiveAppsRowPattern
	if active {
		pattern = activeAppsRowPattern
	}
	return scrape.Table(ctx, c.Core, "applications", pattern)
}

// ListInterviews lists the user's interviews of the given kind. The
// portal implicitly renders a row of blank interviews when there are
// none, which is filtered out here.
func (c Client) ListInterviews(ctx context.Context, kind InterviewKind) ([]*scrape.Record, error) {
	ctx, span := tracer.Start(ctx, "client:ListInterviews")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(kind)))

	pattern, ok := interviewRowPatterns[kind]
	if !ok {
		pattern = interviewRowPatterns[InterviewNormal]
	}

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return nil, err
	}

	records, err := scrape.Table(ctx, c.Core, "interviews", pattern)
	if err != nil {
		return nil, err
	}

	var interviews []*scrape.Record
	for _, record := range records {
		if record.Empty() {
			continue
		}
		interviews = append(interviews, record)
	}
	return interviews, nil
}

// ListShortlist lists the user's shortlisted jobs.
func (c Client) ListShortlist(ctx context.Context) ([]*scrape.Record, error) {
	ctx, span := tracer.Start(ctx, "client:ListShortlist")
	defer span.End()

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return nil, err
	}
	return scrape.Table(ctx, c.Core, "shortlist", shortlistRowPattern)
}

// ListProfile lists the user's co-op term history.
func (c Client) ListProfile(ctx context.Context) ([]*scrape.Record, error) {
	ctx, span := tracer.Start(ctx, "client:ListProfile")
	defer span.End()

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return nil, err
	}
	return scrape.Table(ctx, c.Core, "profile", profileRowPattern)
}

// ListDocuments lists the user's resumes and packages.
func (c Client) ListDocuments(ctx context.Context) ([]*scrape.Record, error) {
	ctx, span := tracer.Start(ctx, "client:ListDocuments")
	defer span.End()

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return nil, err
	}
	return scrape.Table(ctx, c.Core, "documents", documentsRowPattern)
}

// ListRankings lists the user's job rankings.
func (c Client) ListRankings(ctx context.Context) ([]*scrape.Record, error) {
	ctx, span := tracer.Start(ctx, "client:ListRankings")
	defer span.End()

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return nil, err
	}
	return scrape.Table(ctx, c.Core, "rankings", rankingsRowPattern)
}

var (
	appsJobIdPattern      = regexp.MustCompile(`UW_CO_APPS_VW2_UW_CO_JOB_ID`)
	inactiveAppsRowRegexp = regexp.MustCompile(inactiveAppsRowPattern)
)

// RemoveApplication removes the application for the given job id,
// verified by re-counting the application list afterwards.
func (c Client) RemoveApplication(ctx context.Context, jobId string) error {
	ctx, span := tracer.Start(ctx, "client:RemoveApplication")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", jobId))

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return err
	}

	previous, err := c.ListApplications(ctx, false)
	if err != nil {
		return err
	}

	link, err := c.Core.FolderUrl("applications")
	if err != nil {
		return err
	}
	tokens, doc, err := c.Core.PageTokens(ctx, link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to harvest state tokens")
		return err
	}

	// resolve the row by its job id span rather than trusting list
	// position to be stable
	selected := -1
	index := 0
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		id, ok := row.Attr("id")
		if !ok || !inactiveAppsRowRegexp.MatchString(id) {
			return
		}
		idSpan := row.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return appsJobIdPattern.MatchString(s.AttrOr("id", ""))
		})
		if selected < 0 && idSpan.Text() == jobId {
			selected = index
		}
		index++
	})
	if selected < 0 {
		span.SetStatus(codes.Error, ErrApplicationNotFound.Error())
		return ErrApplicationNotFound
	}

	values := tokens.Values()
	values.Set(core.ActionField, fmt.Sprintf("UW_CO_APPSV$delete$%d$$0", selected))
	_, _, err = c.Core.Document(ctx, link+"?"+values.Encode())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to issue delete action")
		return err
	}

	_, err = c.Core.Save(ctx, link, tokens, url.Values{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save transaction")
		return err
	}

	after, err := c.ListApplications(ctx, false)
	if err != nil {
		return err
	}
	if len(after) == len(previous) {
		span.SetStatus(codes.Error, ErrApplicationRemovalFailed.Error())
		return ErrApplicationRemovalFailed
	}
	return nil
}
