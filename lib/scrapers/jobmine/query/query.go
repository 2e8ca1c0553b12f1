package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Portal-internal field names for the job search form.
const (
	locationField = "UW_CO_JOBSRCH_UW_CO_LOCATION"
	titleField    = "UW_CO_JOBSRCH_UW_CO_JOB_TITLE"
	employerField = "UW_CO_JOBSRCH_UW_CO_EMPLYR_NAME"
	termField     = "UW_CO_JOBSRCH_UW_CO_WT_SESSION"
	statusField   = "UW_CO_JOBSRCH_UW_CO_JS_JOBSTATUS"

	levelFieldFormat      = "UW_CO_JOBSRCH_UW_CO_COOP_%s"
	disciplineFieldFormat = "UW_CO_JOBSRCH_UW_CO_ADV_DISCP%d"

	searchAction      = "UW_CO_JOBSRCHDW_UW_CO_DW_SRCHBTN"
	pageForwardAction = "UW_CO_JOBRES_VW$hdown$0"
	pageBackAction    = "UW_CO_JOBRES_VW$hup$0"

	stateNumField = "ICStateNum"
	actionField   = "ICAction"
)

// fields the portal expects on every search postback
var fixedDefaults = map[string]string{
	actionField:           searchAction,
	"ICNAVTYPEDROPDOWN":   "1",
	"ICType":              "Panel",
	"ICElementNum":        "0",
	"ICXPos":              "0",
	"ICYPos":              "0",
	"ResponsetoDiffFrame": "-1",
	"TargetFrameName":     "None",
	"ICSaveWarningFilter": "0",
	"ICChanged":           "-1",
	"ICResubmit":          "0",
}

var termCodes = map[string]string{
	"fall 2013":   "1139",
	"winter 2014": "1141",
	"spring 2014": "1145",
	"fall 2014":   "1149",
}

var statusCodes = map[string]string{
	"approved":  "APPR",
	"available": "APPA",
	"cancelled": "CANC",
	"posted":    "POST",
}

var levelCodes = map[string]string{
	"jr":        "JR",
	"int":       "INT",
	"sr":        "SR",
	"bachelors": "BACHELOR",
	"masters":   "MASTERS",
	"phd":       "PHD",
}

// Filters carries the human-readable values for a job search. Zero
// values leave the corresponding query defaults untouched.
type Filters struct {
	Employer    string
	Title       string
	Location    string
	Term        string
	Status      string
	Levels      []string
	Disciplines []string
}

// JobSearchQuery builds the hidden-field payload for one paginated job
// search. It is single-threaded by construction: its state counter must
// track the portal's expected value, so an instance must not be reused
// across unrelated flows.
type JobSearchQuery struct {
	data     map[string]string
	fixed    map[string]string
	readable map[string]string

	disciplineCutoff float64
	row              int
}

type Option func(*JobSearchQuery)

// WithDisciplineCutoff overrides the similarity cutoff used when fuzzy
// matching discipline names. A cutoff of 0 always accepts the closest
// catalog program.
func WithDisciplineCutoff(cutoff float64) Option {
	return func(q *JobSearchQuery) {
		q.disciplineCutoff = cutoff
	}
}

func New(opts ...Option) *JobSearchQuery {
	q := &JobSearchQuery{disciplineCutoff: DefaultMatchCutoff}
	for _, opt := range opts {
		opt(q)
	}
	q.Clear()
	return q
}

// Clear resets the query back to its defaults: posted jobs for the most
// recent known term at every co-op seniority.
func (q *JobSearchQuery) Clear() {
	q.data = map[string]string{}
	q.readable = map[string]string{}
	q.fixed = map[string]string{}
	for k, v := range fixedDefaults {
		q.fixed[k] = v
	}
	q.row = 0

	q.Status("posted")
	q.Term("fall 2014")
	q.Levels("jr", "int", "sr")
	q.Location("")
	q.Title("")
	q.Employer("")
	q.Disciplines()
}

// Add sets a raw low-level field, used to seed the session's state
// tokens into the query.
func (q *JobSearchQuery) Add(field, value string) {
	q.data[field] = value
}

// Get returns the human-readable echo of a named setter when one was
// recorded, falling back to the raw field value.
func (q *JobSearchQuery) Get(name string) string {
	if v, ok := q.readable[name]; ok {
		return v
	}
	if v, ok := q.data[name]; ok {
		return v
	}
	return q.fixed[name]
}

func (q *JobSearchQuery) Location(location string) *JobSearchQuery {
	q.data[locationField] = location
	q.readable["location"] = location
	return q
}

func (q *JobSearchQuery) Title(title string) *JobSearchQuery {
	q.data[titleField] = title
	q.readable["title"] = title
	return q
}

func (q *JobSearchQuery) Employer(employer string) *JobSearchQuery {
	q.data[employerField] = employer
	q.readable["employer"] = employer
	return q
}

// Term resolves a semester label to the portal's term code. Unknown
// labels pass through unchanged so numeric term codes keep working for
// terms newer than the lookup.
func (q *JobSearchQuery) Term(term string) *JobSearchQuery {
	code, ok := termCodes[strings.ToLower(term)]
	if !ok {
		code = term
	}
	q.data[termField] = code
	q.readable["term"] = term
	return q
}

// Status encodes one of the four known posting statuses. An unknown
// status is a configuration error.
func (q *JobSearchQuery) Status(status string) error {
	code, ok := statusCodes[strings.ToLower(status)]
	if !ok {
		return fmt.Errorf("unknown job status: %q", status)
	}
	q.data[statusField] = code
	q.readable["status"] = status
	return nil
}

// Levels selects the seniority level flags, replacing any previously
// selected set. Unknown level tags are ignored.
func (q *JobSearchQuery) Levels(levels ...string) *JobSearchQuery {
	for _, code := range levelCodes {
		field := fmt.Sprintf(levelFieldFormat, code)
		delete(q.data, field)
		delete(q.data, field+"$chk")
	}

	var selected []string
	for _, level := range levels {
		code, ok := levelCodes[strings.ToLower(level)]
		if !ok {
			continue
		}
		field := fmt.Sprintf(levelFieldFormat, code)
		q.data[field] = "Y"
		q.data[field+"$chk"] = "Y"
		selected = append(selected, level)
	}
	q.readable["levels"] = strings.Join(selected, ",")
	return q
}

// Disciplines fuzzy-matches the supplied program names against the
// co-op program catalog and encodes at most three matches into the
// fixed discipline slots. Names below the similarity cutoff are
// dropped.
func (q *JobSearchQuery) Disciplines(names ...string) *JobSearchQuery {
	for slot := 1; slot <= 3; slot++ {
		q.data[fmt.Sprintf(disciplineFieldFormat, slot)] = ""
	}

	var matched []string
	slot := 1
	for _, name := range names {
		if slot > 3 {
			break
		}
		code, ok := Programs.Match(name, q.disciplineCutoff)
		if !ok {
			continue
		}
		q.data[fmt.Sprintf(disciplineFieldFormat, slot)] = code
		matched = append(matched, name)
		slot++
	}
	q.readable["disciplines"] = strings.Join(matched, ",")
	return q
}

// Row records the matched job's resolved row index when the query was
// used in extraction mode.
func (q *JobSearchQuery) Row() int {
	return q.row
}

func (q *JobSearchQuery) SetRow(row int) {
	q.row = row
}

// Paginate advances the query's state counter and flips the action
// between page-forward and page-back. Calling it before any state
// tokens are present is a no-op.
func (q *JobSearchQuery) Paginate(down bool) *JobSearchQuery {
	raw, ok := q.data[stateNumField]
	if !ok {
		return q
	}
	state, err := strconv.Atoi(raw)
	if err != nil {
		return q
	}

	if !down {
		q.data[stateNumField] = strconv.Itoa(state + 1)
		q.fixed[actionField] = pageForwardAction
	} else {
		q.data[stateNumField] = strconv.Itoa(state - 1)
		q.fixed[actionField] = pageBackAction
	}
	return q
}

// MakeQuery applies the overrides through the named setters and
// serializes the query onto the base url. Override values win over
// previously set values, fixed fields win over both.
func (q *JobSearchQuery) MakeQuery(baseUrl string, overrides *Filters) (string, error) {
	if overrides != nil {
		if overrides.Employer != "" {
			q.Employer(overrides.Employer)
		}
		if overrides.Title != "" {
			q.Title(overrides.Title)
		}
		if overrides.Location != "" {
			q.Location(overrides.Location)
		}
		if overrides.Term != "" {
			q.Term(overrides.Term)
		}
		if overrides.Status != "" {
			err := q.Status(overrides.Status)
			if err != nil {
				return "", err
			}
		}
		if len(overrides.Levels) > 0 {
			q.Levels(overrides.Levels...)
		}
		if len(overrides.Disciplines) > 0 {
			q.Disciplines(overrides.Disciplines...)
		}
	}

	serialized := url.Values{}
	for field, value := range q.data {
		serialized.Set(field, value)
	}
	for field, value := range q.fixed {
		serialized.Set(field, value)
	}

	return baseUrl + "?" + serialized.Encode(), nil
}
