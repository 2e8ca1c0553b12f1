package core

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// The per-transaction correlation values every stateful postback must
// carry. The portal rejects a postback whose state counter does not
// equal the value it currently expects.
type StateTokens struct {
	Sid      string
	StateNum int
}

const (
	SidField      = "ICSID"
	StateNumField = "ICStateNum"
	ActionField   = "ICAction"

	saveAction = "#ICSave"
)

func (t StateTokens) Values() url.Values {
	v := url.Values{}
	v.Set(SidField, t.Sid)
	v.Set(StateNumField, strconv.Itoa(t.StateNum))
	return v
}

// Tokens harvests the state tokens from the hidden fields of the page's
// first form.
func Tokens(doc *goquery.Document) (StateTokens, error) {
	form := doc.Find("form").First()
	if len(form.Nodes) == 0 {
		return StateTokens{}, fmt.Errorf("page has no form to take state tokens from")
	}

	sid := form.Find(fmt.Sprintf("input[name=%s]", SidField)).AttrOr("value", "")
	rawState := form.Find(fmt.Sprintf("input[name=%s]", StateNumField)).AttrOr("value", "")
	if sid == "" || rawState == "" {
		return StateTokens{}, fmt.Errorf("page form is missing state tokens")
	}
	stateNum, err := strconv.Atoi(rawState)
	if err != nil {
		return StateTokens{}, fmt.Errorf("malformed state counter %q: %w", rawState, err)
	}

	return StateTokens{Sid: sid, StateNum: stateNum}, nil
}

// PageTokens fetches a page and harvests its state tokens.
func (c *Client) PageTokens(ctx context.Context, link string) (StateTokens, *goquery.Document, error) {
	doc, _, err := c.Document(ctx, link)
	if err != nil {
		return StateTokens{}, nil, err
	}
	tokens, err := Tokens(doc)
	if err != nil {
		return StateTokens{}, doc, err
	}
	return tokens, doc, nil
}

// Save commits the current transaction on the given page. The state
// counter is incremented before sending, advancing the portal's
// server-side view state.
func (c *Client) Save(ctx context.Context, link string, tokens StateTokens, extra url.Values) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:Save")
	defer span.End()

	values := tokens.Values()
	values.Set(StateNumField, strconv.Itoa(tokens.StateNum+1))
	values.Set(ActionField, saveAction)
	for key, vals := range extra {
		for _, v := range vals {
			values.Set(key, v)
		}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(link + "?" + values.Encode())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make save request")
		return nil, err
	}
	return res.Body(), nil
}

// Unavailable reports whether a postback response carries one of the
// portal's failure markers. The portal returns success-looking pages on
// logical failure, these markers are the only inline signal.
func Unavailable(body []byte) bool {
	page := strings.ToLower(string(body))
	return strings.Contains(page, "error") || strings.Contains(page, "not available")
}
