package scrape

import (
	"context"
	"regexp"

	"github.com/hkpeprah/jerbminer/lib/htmlutil"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/core"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/jobmine/scrape")

// matchRows returns the table rows whose id matches the row pattern.
func matchRows(doc *goquery.Document, rowPattern *regexp.Regexp) *goquery.Selection {
	return doc.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		id, ok := row.Attr("id")
		return ok && rowPattern.MatchString(id)
	})
}

// ParseTable converts the data rows matching rowPattern into ordered
// records keyed by the table's headers. Columns whose header text is
// empty are placeholder columns the portal emits for alignment, they
// are dropped from the headers and every row before zipping. Zero
// matching rows or a lone all-blank row both yield an empty result,
// never an error: the portal renders an empty table rather than
// omitting it.
func ParseTable(doc *goquery.Document, rowPattern *regexp.Regexp) []*Record {
	rows := matchRows(doc, rowPattern)
	if len(rows.Nodes) == 0 {
		return nil
	}

	var headers []string
	rows.First().Closest("table").Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, htmlutil.CleanText(htmlutil.GetText(th.Nodes[0])))
	})

	var cells [][]string
	rows.Each(func(_ int, row *goquery.Selection) {
		var values []string
		row.Find("td").Each(func(_ int, td *goquery.Selection) {
			values = append(values, htmlutil.CellValue(td))
		})
		cells = append(cells, values)
	})

	// the dropped column index set must be identical for the headers
	// and every row so columns stay aligned
	var keptHeaders []string
	var kept []int
	for i, header := range headers {
		if header == "" {
			continue
		}
		keptHeaders = append(keptHeaders, header)
		kept = append(kept, i)
	}

	var records []*Record
	for _, row := range cells {
		record := NewRecord()
		for j, index := range kept {
			if index >= len(row) {
				break
			}
			record.Set(keptHeaders[j], row[index])
		}
		records = append(records, record)
	}

	if len(records) == 0 || records[0].Len() == 0 {
		return nil
	}
	return records
}

// Table fetches one of the portal's named endpoints and scrapes the
// rows matching rowPattern into records.
func Table(ctx context.Context, client *core.Client, endpoint string, rowPattern string) ([]*Record, error) {
	ctx, span := tracer.Start(ctx, "Table")
	defer span.End()
	span.SetAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("row_pattern", rowPattern),
	)

	pattern, err := regexp.Compile(rowPattern)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid row pattern")
		return nil, err
	}

	link, err := client.FolderUrl(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown endpoint")
		return nil, err
	}

	doc, _, err := client.Document(ctx, link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return nil, err
	}

	records := ParseTable(doc, pattern)
	span.SetAttributes(attribute.Int("rows", len(records)))
	return records, nil
}
