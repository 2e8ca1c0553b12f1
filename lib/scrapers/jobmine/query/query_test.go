package query

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func queryValues(t *testing.T, link string) url.Values {
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatal(err)
	}
	return parsed.Query()
}

func TestMakeQuery(t *testing.T) {
	q := New()
	q.Add("ICSID", "c29tZXNpZA==")
	q.Add("ICStateNum", "5")

	link, err := q.MakeQuery("https://jobmine.ccol.uwaterloo.ca/psc/SS/x", &Filters{
		Title:    "developer",
		Employer: "Initech",
		Term:     "fall 2014",
		Status:   "posted",
		Levels:   []string{"jr", "int", "sr"},
	})
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, strings.HasPrefix(link, "https://jobmine.ccol.uwaterloo.ca/psc/SS/x?"))

	values := queryValues(t, link)
	require.Equal(t, "POST", values.Get("UW_CO_JOBSRCH_UW_CO_JS_JOBSTATUS"))
	require.Equal(t, "1149", values.Get("UW_CO_JOBSRCH_UW_CO_WT_SESSION"))
	require.Equal(t, "developer", values.Get("UW_CO_JOBSRCH_UW_CO_JOB_TITLE"))
	require.Equal(t, "Initech", values.Get("UW_CO_JOBSRCH_UW_CO_EMPLYR_NAME"))
	require.Equal(t, "c29tZXNpZA==", values.Get("ICSID"))
	require.Equal(t, "5", values.Get("ICStateNum"))
	require.Equal(t, "UW_CO_JOBSRCHDW_UW_CO_DW_SRCHBTN", values.Get("ICAction"))

	for _, code := range []string{"JR", "INT", "SR"} {
		require.Equal(t, "Y", values.Get("UW_CO_JOBSRCH_UW_CO_COOP_"+code), code)
		require.Equal(t, "Y", values.Get("UW_CO_JOBSRCH_UW_CO_COOP_"+code+"$chk"), code)
	}
	require.Empty(t, values.Get("UW_CO_JOBSRCH_UW_CO_COOP_BACHELOR"))
}

func TestStatusUnknown(t *testing.T) {
	q := New()
	err := q.Status("pending")
	require.Error(t, err)

	_, err = q.MakeQuery("https://jobmine.ccol.uwaterloo.ca", &Filters{Status: "pending"})
	require.Error(t, err)
}

func TestTermPassthrough(t *testing.T) {
	// codes newer than the lookup table pass through untouched
	q := New()
	q.Term("1151")
	link, err := q.MakeQuery("https://jobmine.ccol.uwaterloo.ca", nil)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "1151", queryValues(t, link).Get("UW_CO_JOBSRCH_UW_CO_WT_SESSION"))
}

func TestLevelsReplacePreviousSelection(t *testing.T) {
	q := New()
	q.Levels("jr")
	q.Levels("masters")

	link, err := q.MakeQuery("https://jobmine.ccol.uwaterloo.ca", nil)
	if err != nil {
		t.Fatal(err)
	}
	values := queryValues(t, link)
	require.Empty(t, values.Get("UW_CO_JOBSRCH_UW_CO_COOP_JR"))
	require.Empty(t, values.Get("UW_CO_JOBSRCH_UW_CO_COOP_JR$chk"))
	require.Equal(t, "Y", values.Get("UW_CO_JOBSRCH_UW_CO_COOP_MASTERS"))
	require.Equal(t, "Y", values.Get("UW_CO_JOBSRCH_UW_CO_COOP_MASTERS$chk"))
}

func TestFixedFieldsWin(t *testing.T) {
	q := New()
	q.Add("ICAction", "SOMETHING_ELSE")
	link, err := q.MakeQuery("https://jobmine.ccol.uwaterloo.ca", nil)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "UW_CO_JOBSRCHDW_UW_CO_DW_SRCHBTN", queryValues(t, link).Get("ICAction"))
}

func TestPaginate(t *testing.T) {
	// without state tokens pagination is a no-op
	q := New()
	q.Paginate(false)
	link, err := q.MakeQuery("https://jobmine.ccol.uwaterloo.ca", nil)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "UW_CO_JOBSRCHDW_UW_CO_DW_SRCHBTN", queryValues(t, link).Get("ICAction"))

	q.Add("ICStateNum", "5")
	q.Paginate(false)
	link, err = q.MakeQuery("https://jobmine.ccol.uwaterloo.ca", nil)
	if err != nil {
		t.Fatal(err)
	}
	values := queryValues(t, link)
	require.Equal(t, "6", values.Get("ICStateNum"))
	require.Equal(t, "UW_CO_JOBRES_VW$hdown$0", values.Get("ICAction"))

	q.Paginate(true)
	link, err = q.MakeQuery("https://jobmine.ccol.uwaterloo.ca", nil)
	if err != nil {
		t.Fatal(err)
	}
	values = queryValues(t, link)
	require.Equal(t, "5", values.Get("ICStateNum"))
	require.Equal(t, "UW_CO_JOBRES_VW$hup$0", values.Get("ICAction"))
}

func TestDisciplines(t *testing.T) {
	q := New()
	q.Disciplines("software engineering", "computer science", "statistics", "physics")

	link, err := q.MakeQuery("https://jobmine.ccol.uwaterloo.ca", nil)
	if err != nil {
		t.Fatal(err)
	}
	values := queryValues(t, link)
	// only three slots exist, extra names are dropped
	require.Equal(t, "ENG-SE", values.Get("UW_CO_JOBSRCH_UW_CO_ADV_DISCP1"))
	require.Equal(t, "MATH-CS", values.Get("UW_CO_JOBSRCH_UW_CO_ADV_DISCP2"))
	require.Equal(t, "MATH-STAT", values.Get("UW_CO_JOBSRCH_UW_CO_ADV_DISCP3"))
}

func TestDisciplineCutoff(t *testing.T) {
	q := New()
	q.Disciplines("zzzzqqq")
	link, err := q.MakeQuery("https://jobmine.ccol.uwaterloo.ca", nil)
	if err != nil {
		t.Fatal(err)
	}
	require.Empty(t, queryValues(t, link).Get("UW_CO_JOBSRCH_UW_CO_ADV_DISCP1"))

	// a zero cutoff accepts the closest program no matter what
	q = New(WithDisciplineCutoff(0))
	q.Disciplines("zzzzqqq")
	link, err = q.MakeQuery("https://jobmine.ccol.uwaterloo.ca", nil)
	if err != nil {
		t.Fatal(err)
	}
	require.NotEmpty(t, queryValues(t, link).Get("UW_CO_JOBSRCH_UW_CO_ADV_DISCP1"))
}

func TestCatalogMatch(t *testing.T) {
	code, ok := Programs.Match("Software Engineering", DefaultMatchCutoff)
	require.True(t, ok)
	require.Equal(t, "ENG-SE", code)

	// close but inexact names still resolve
	code, ok = Programs.Match("software eng", 0.8)
	require.True(t, ok)
	require.Equal(t, "ENG-SE", code)

	_, ok = Programs.Match("zzzzqqq", DefaultMatchCutoff)
	require.False(t, ok)

	require.NotEmpty(t, Programs.Faculties())
	require.NotEmpty(t, Programs.All("Mathematics"))
}
