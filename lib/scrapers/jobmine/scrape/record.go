package scrape

import "strings"

// Record is an ordered key to value mapping scraped from one rendered
// table row. Keys are the column headers harvested live from the page,
// they are not a fixed schema and are only good within one scrape.
// Values are usually scalar, the job detail parser produces lists for
// metadata fields that span multiple lines.
type Record struct {
	keys []string
	vals map[string][]string
}

func NewRecord() *Record {
	return &Record{vals: map[string][]string{}}
}

func (r *Record) Set(key string, values ...string) {
	if r.vals == nil {
		r.vals = map[string][]string{}
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = values
}

func (r *Record) Append(key string, value string) {
	if r.vals == nil {
		r.vals = map[string][]string{}
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = append(r.vals[key], value)
}

// Get returns the scalar value for a key, the first value when the key
// holds a list, or "" when the key is absent.
func (r *Record) Get(key string) string {
	vals := r.vals[key]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func (r *Record) GetAll(key string) []string {
	return r.vals[key]
}

func (r *Record) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Keys returns the column headers in the order they appeared on the page.
func (r *Record) Keys() []string {
	return r.keys
}

func (r *Record) Len() int {
	return len(r.keys)
}

// Empty reports whether every value in the record is blank. The portal
// renders a row of blank cells instead of omitting an empty table.
func (r *Record) Empty() bool {
	for _, vals := range r.vals {
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				return false
			}
		}
	}
	return true
}

// Fingerprint joins the record's values into a stable identity used for
// deduplicating paginated result rows.
func (r *Record) Fingerprint() string {
	var b strings.Builder
	for i, key := range r.keys {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(strings.Join(r.vals[key], "\x1e"))
	}
	return b.String()
}

func (r *Record) Equal(other *Record) bool {
	if r.Len() != other.Len() {
		return false
	}
	for i, key := range r.keys {
		if other.keys[i] != key {
			return false
		}
		left, right := r.vals[key], other.vals[key]
		if len(left) != len(right) {
			return false
		}
		for j := range left {
			if left[j] != right[j] {
				return false
			}
		}
	}
	return true
}
