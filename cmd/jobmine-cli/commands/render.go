package commands

import (
	"os"
	"strings"

	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/scrape"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// renderRecords prints scraped records as a table, one row per record.
// Columns follow the first record's key order; repeated values within a
// record render newline-separated.
func renderRecords(records []*scrape.Record) {
	if len(records) == 0 {
		return
	}

	keys := records[0].Keys()
	t := newTable()

	header := table.Row{}
	for _, key := range keys {
		header = append(header, key)
	}
	t.AppendHeader(header)

	for _, record := range records {
		row := table.Row{}
		for _, key := range keys {
			row = append(row, strings.Join(record.GetAll(key), "\n"))
		}
		t.AppendRow(row)
	}
	t.Render()
}

// renderRecord prints one record as a two-column key/value table, which
// reads better for wide records like job details.
func renderRecord(record *scrape.Record) {
	t := newTable()
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, key := range record.Keys() {
		t.AppendRow(table.Row{key, strings.Join(record.GetAll(key), "\n")})
	}
	t.Render()
}
