package docs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/hkpeprah/jerbminer/lib/htmlutil"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/browse"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/core"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/jobmine/docs")

var (
	ErrDocumentNotFound         = fmt.Errorf("The specified document does not exist.")
	ErrUnknownDocumentType      = fmt.Errorf("Unknown document type.")
	ErrMaximumDocumentsReached  = fmt.Errorf("Maximum document count reached.")
	ErrDocumentCreateFailed     = fmt.Errorf("Document create failed.  Manually upload.")
	ErrDocumentUploadFailed     = fmt.Errorf("Document upload failed.  Manually upload.")
	ErrCannotDeleteLastDocument = fmt.Errorf("Cannot delete document, at least one must exist.")
	ErrDocumentDeletionFailed   = fmt.Errorf("Document deletion failed.  Manually delete.")
)

// Type selects which rendering of a document to download.
type Type string

const (
	TypeResume  Type = "resume-document"
	TypePackage Type = "package"
)

// portal action-name fragments per document type
var typeActions = map[Type]string{
	TypeResume:  "DOC",
	TypePackage: "PACKAGE",
}

const (
	viewActionFormat   = "UW_CO_PDF_LINKS_UW_CO_%s_VIEW$%d"
	addActionFormat    = "UW_CO_PDF_WRK_UW_CO_DOC_ADD$%d"
	deleteActionFormat = "UW_CO_PDF_WRK_UW_CO_DOC_DELETE$%d"
	descFieldFormat    = "UW_CO_STU_DOCS_UW_CO_DOC_DESC$%d"

	createAction = "UW_CO_PDF_WRK_UW_CO_DOC_CREATE"

	documentNumberKey = "Document Number"
)

// Client performs the portal's multi-step document transfer protocols.
type Client struct {
	Core   *core.Client
	browse browse.Client
}

func NewClient(coreClient *core.Client) Client {
	return Client{
		Core:   coreClient,
		browse: browse.NewClient(coreClient),
	}
}

// resolvePosition locates a document's current row position by its
// stable document-number field rather than assuming list position.
func (c Client) resolvePosition(ctx context.Context, number int) (int, int, error) {
	documents, err := c.browse.ListDocuments(ctx)
	if err != nil {
		return 0, 0, err
	}

	for index, document := range documents {
		if document.Has(documentNumberKey) {
			if document.Get(documentNumberKey) == strconv.Itoa(number) {
				return index, len(documents), nil
			}
			continue
		}
		// older renders omit the number column, fall back to position
		if index == number-1 {
			return index, len(documents), nil
		}
	}
	return 0, len(documents), ErrDocumentNotFound
}

var commandQueryPattern = regexp.MustCompile(`cmd=viewattach[^'"?,()]+`)

// the refresh directive embeds its target either in a meta tag or on
// its own line in the body
var refreshTargetPattern = regexp.MustCompile(`(?i)content=["']?\d+\s*;\s*url=([^"'>\s]+)`)

func refreshTarget(body string) string {
	groups := refreshTargetPattern.FindStringSubmatch(body)
	if len(groups) == 2 {
		return groups[1]
	}
	lines := strings.Split(body, "\n")
	if len(lines) > 3 {
		return strings.TrimSpace(lines[3])
	}
	return ""
}

// Download fetches a document's binary content. The portal requires
// three hops: an action page embedding a generated command url, the
// command url whose response carries a refresh directive that must be
// followed manually, and the final location holding the payload.
func (c Client) Download(ctx context.Context, number int, documentType Type) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:Download")
	defer span.End()
	span.SetAttributes(
		attribute.Int("document", number),
		attribute.String("type", string(documentType)),
	)

	action, ok := typeActions[documentType]
	if !ok {
		span.SetStatus(codes.Error, ErrUnknownDocumentType.Error())
		return nil, ErrUnknownDocumentType
	}

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return nil, err
	}

	position, _, err := c.resolvePosition(ctx, number)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve document position")
		return nil, err
	}

	link, err := c.Core.FolderUrl("documents")
	if err != nil {
		return nil, err
	}

	res, err := c.Core.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s?%s=%s", link, core.ActionField,
			url.QueryEscape(fmt.Sprintf(viewActionFormat, action, position))))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch action page")
		return nil, err
	}

	command := commandQueryPattern.FindString(res.String())
	if command == "" {
		span.SetStatus(codes.Error, "no command url on action page")
		return nil, fmt.Errorf("action page embeds no download command url")
	}

	res, err = c.Core.Http.R().
		SetContext(ctx).
		Get(c.Core.CmdUrl() + "?" + command)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch command url")
		return nil, err
	}

	target := refreshTarget(res.String())
	if target == "" {
		span.SetStatus(codes.Error, "no refresh target on command page")
		return nil, fmt.Errorf("command page embeds no refresh target")
	}

	res, err = c.Core.Http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch document payload")
		return nil, err
	}

	span.SetAttributes(attribute.Int("bytes", len(res.Body())))
	return res.Body(), nil
}

// UploadOptions control how Upload places the file.
type UploadOptions struct {
	// optional display name saved against the document slot
	Name string
	// when non-zero, re-upload into this existing document number
	// instead of creating a new slot
	Existing int
}

// Upload submits the file at path into a document slot, creating a new
// slot first unless an existing document number is given. Slot creation
// is verified by re-counting documents, the portal reports no explicit
// success code.
func (c Client) Upload(ctx context.Context, path string, opts UploadOptions) error {
	ctx, span := tracer.Start(ctx, "client:Upload")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return err
	}

	documents, err := c.browse.ListDocuments(ctx)
	if err != nil {
		return err
	}
	count := len(documents)

	link, err := c.Core.FolderUrl("documents")
	if err != nil {
		return err
	}
	tokens, doc, err := c.Core.PageTokens(ctx, link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to harvest state tokens")
		return err
	}

	var slot int
	if opts.Existing != 0 {
		if opts.Existing < 1 || opts.Existing > count {
			span.SetStatus(codes.Error, ErrDocumentNotFound.Error())
			return ErrDocumentNotFound
		}
		slot = opts.Existing - 1
	} else {
		// the create anchor disappears once the portal's document
		// quota is reached
		anchors := htmlutil.GetAnchors(ctx, doc.Find("a#"+createAction))
		if len(anchors) == 0 {
			span.SetStatus(codes.Error, ErrMaximumDocumentsReached.Error())
			return ErrMaximumDocumentsReached
		}

		values := tokens.Values()
		values.Set(core.ActionField, createAction)
		_, _, err = c.Core.Document(ctx, link+"?"+values.Encode())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to issue create action")
			return err
		}
		_, err = c.Core.Save(ctx, link, tokens, url.Values{})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to save transaction")
			return err
		}

		after, err := c.browse.ListDocuments(ctx)
		if err != nil {
			return err
		}
		if len(after) == count {
			span.SetStatus(codes.Error, ErrDocumentCreateFailed.Error())
			return ErrDocumentCreateFailed
		}
		slot = count

		tokens, _, err = c.Core.PageTokens(ctx, link)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to refresh state tokens")
			return err
		}
	}

	if opts.Name != "" {
		field := fmt.Sprintf(descFieldFormat, slot)
		extra := url.Values{}
		extra.Set(field, opts.Name)
		_, err = c.Core.Save(ctx, link, tokens, extra)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to save document name")
			return err
		}
		tokens.StateNum++
	}

	// navigate to the slot's upload form
	values := tokens.Values()
	values.Set(core.ActionField, fmt.Sprintf(addActionFormat, slot))
	_, _, err = c.Core.Document(ctx, link+"?"+values.Encode())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open upload form")
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open file")
		return err
	}
	defer file.Close()

	res, err := c.Core.Http.R().
		SetContext(ctx).
		SetFileReader("file", filepath.Base(path), file).
		SetMultipartFormData(map[string]string{
			core.SidField:      tokens.Sid,
			core.StateNumField: strconv.Itoa(tokens.StateNum + 1),
		}).
		Post(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit file")
		return err
	}

	if core.Unavailable(res.Body()) {
		span.SetStatus(codes.Error, ErrDocumentUploadFailed.Error())
		return ErrDocumentUploadFailed
	}
	return nil
}

// Delete removes the document at the given number, verified by
// re-counting afterwards. The portal requires at least one document to
// remain, deleting the last one is refused before any network
// mutation.
func (c Client) Delete(ctx context.Context, number int) error {
	ctx, span := tracer.Start(ctx, "client:Delete")
	defer span.End()
	span.SetAttributes(attribute.Int("document", number))

	err := c.Core.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no live session")
		return err
	}

	documents, err := c.browse.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if number < 1 || number > len(documents) {
		span.SetStatus(codes.Error, ErrDocumentNotFound.Error())
		return ErrDocumentNotFound
	}
	if len(documents) == 1 {
		span.SetStatus(codes.Error, ErrCannotDeleteLastDocument.Error())
		return ErrCannotDeleteLastDocument
	}

	link, err := c.Core.FolderUrl("documents")
	if err != nil {
		return err
	}
	tokens, _, err := c.Core.PageTokens(ctx, link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to harvest state tokens")
		return err
	}

	values := tokens.Values()
	values.Set(core.ActionField, fmt.Sprintf(deleteActionFormat, number-1))
	_, _, err = c.Core.Document(ctx, link+"?"+values.Encode())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to issue delete action")
		return err
	}

	after, err := c.browse.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(after) == len(documents) {
		span.SetStatus(codes.Error, ErrDocumentDeletionFailed.Error())
		return ErrDocumentDeletionFailed
	}
	return nil
}
