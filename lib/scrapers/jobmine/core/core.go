package core

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hkpeprah/jerbminer/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/jobmine/core")

var (
	ErrPortalClosed         = fmt.Errorf("Jobmine is currently closed.")
	ErrAuthenticationFailed = fmt.Errorf("Could not authenticate the user.")
	ErrSessionExpired       = fmt.Errorf("Session expired and re-authentication failed.")
	ErrNotAuthenticated     = fmt.Errorf("Method requires the user to be authenticated.")
	ErrUnknownEndpoint      = fmt.Errorf("Unknown Jobmine endpoint.")
)

const (
	loginPath   = "/psp/SS/?cmd=login"
	defaultPath = "/psp/SS/EMPLOYEE/WORK/h/?tab=DEFAULT"
	cmdPath     = "/psc/SS/"

	folderPathFormat = "/psc/SS/EMPLOYEE/WORK/c/UW_CO_STUDENTS.%s.GBL"
)

// Endpoints maps a friendly name to the portal-internal component name
// that the content frame loads for that page.
var Endpoints = map[string]string{
	"applications": "UW_CO_APP_SUMMARY",
	"shortlist":    "UW_CO_JOB_SLIST",
	"interviews":   "UW_CO_STU_INTVS",
	"profile":      "UW_CO_STUDENT",
	"documents":    "UW_CO_STU_DOCS",
	"rankings":     "UW_CO_STU_RNK2",
	"jobs":         "UW_CO_JOBSRCH",
	"details":      "UW_CO_JOBDTLS",
}

type Credentials struct {
	Username string
	Password string
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	cookieFile string
	creds      *Credentials
}

type ClientOptions struct {
	BaseUrl string
	// if unspecified, cookies are not persisted across runs
	CookieFile string
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	// the bypass transport also supplies a browser-like user agent
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/jobmine/http")

	c := &Client{
		BaseUrl:    baseUrl,
		Http:       client,
		cookieFile: opts.CookieFile,
	}
	err = c.loadCookies()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) DefaultRedirectPolicy() resty.RedirectPolicy {
	return resty.DomainCheckRedirectPolicy(c.BaseUrl.Hostname())
}

// FolderUrl resolves the absolute url of the content frame for one of
// the named Endpoints.
func (c *Client) FolderUrl(endpoint string) (string, error) {
	component, ok := Endpoints[endpoint]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}
	ref := &url.URL{Path: fmt.Sprintf(folderPathFormat, component)}
	return c.BaseUrl.ResolveReference(ref).String(), nil
}

func (c *Client) CmdUrl() string {
	return c.BaseUrl.ResolveReference(&url.URL{Path: cmdPath}).String()
}

func (c *Client) defaultUrl() string {
	ref, _ := url.Parse(defaultPath)
	return c.BaseUrl.ResolveReference(ref).String()
}

// Document fetches a page and parses it, returning the response as well
// so callers can inspect the final url after redirects.
func (c *Client) Document(ctx context.Context, link string) (*goquery.Document, *resty.Response, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, res, err
	}
	return doc, res, nil
}

func finalUrl(res *resty.Response) string {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		return res.RawResponse.Request.URL.String()
	}
	return res.Request.URL
}

// findLoginForm probes the page's forms for the login form. The portal
// does not guarantee it is the first form on the page, so match by the
// form's name or by the presence of its userid/pwd fields.
func findLoginForm(doc *goquery.Document) *goquery.Selection {
	var form *goquery.Selection
	doc.Find("form").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := s.AttrOr("name", s.AttrOr("id", ""))
		if name == "login" {
			form = s
			return false
		}
		if len(s.Find("input[name=userid]").Nodes) > 0 &&
			len(s.Find("input[name=pwd]").Nodes) > 0 {
			form = s
			return false
		}
		return true
	})
	return form
}

// Login authenticates against the portal with the given credentials.
// On success the session cookies are persisted and the credentials are
// retained for silent re-authentication.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	doc, res, err := c.Document(ctx, loginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}

	form := findLoginForm(doc)
	if form == nil {
		span.SetStatus(codes.Error, "failed to find login form")
		return ErrAuthenticationFailed
	}

	// carry over every field the form renders, hidden state included
	fields := map[string]string{}
	form.Find("input").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		fields[name] = input.AttrOr("value", "")
	})
	fields["userid"] = username
	fields["pwd"] = password

	action := form.AttrOr("action", "")
	target, err := resolveFormAction(finalUrl(res), action)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve login form action")
		return err
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetFormData(fields).
		Post(target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}

	if strings.Contains(finalUrl(res), "errorCode=999") {
		span.SetStatus(codes.Error, ErrPortalClosed.Error())
		return ErrPortalClosed
	}

	c.creds = &Credentials{Username: username, Password: password}
	err = c.SaveCookies()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist cookies")
	}

	slog.InfoContext(ctx, "logged into jobmine", "username", username)
	return nil
}

// EnsureSession verifies that the authenticated landing page is still
// reachable, re-authenticating once with the retained credentials when
// the portal has redirected the session away from it.
func (c *Client) EnsureSession(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:EnsureSession")
	defer span.End()

	landing := c.defaultUrl()
	_, res, err := c.Document(ctx, landing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch landing page")
		return err
	}
	if finalUrl(res) == landing {
		return nil
	}
	span.SetAttributes(attribute.String("redirected_to", finalUrl(res)))

	if c.creds == nil {
		span.SetStatus(codes.Error, ErrNotAuthenticated.Error())
		return ErrNotAuthenticated
	}

	err = c.Login(ctx, c.creds.Username, c.creds.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "re-authentication failed")
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	_, res, err = c.Document(ctx, landing)
	if err != nil {
		return err
	}
	if finalUrl(res) != landing {
		span.SetStatus(codes.Error, ErrSessionExpired.Error())
		return ErrSessionExpired
	}
	return nil
}

func resolveFormAction(pageUrl, action string) (string, error) {
	base, err := url.Parse(pageUrl)
	if err != nil {
		return "", err
	}
	if action == "" {
		return base.String(), nil
	}
	ref, err := url.Parse(action)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
