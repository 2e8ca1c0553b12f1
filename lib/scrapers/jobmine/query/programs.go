package query

import (
	_ "embed"
	"encoding/json"

	"github.com/hkpeprah/jerbminer/lib/textutil"

	"github.com/antzucaro/matchr"
)

//go:embed majors.json
var majorsJson []byte

// Catalog is the faculty -> program name -> portal code mapping used to
// resolve user-supplied discipline names. Loaded once at process start,
// immutable after load.
type Catalog struct {
	faculties map[string]map[string]string
}

var Programs = mustLoadCatalog()

func mustLoadCatalog() *Catalog {
	var faculties map[string]map[string]string
	err := json.Unmarshal(majorsJson, &faculties)
	if err != nil {
		panic(err)
	}
	return &Catalog{faculties: faculties}
}

// DefaultMatchCutoff is the minimum Jaro-Winkler similarity for a
// discipline name to be considered a match against the catalog.
const DefaultMatchCutoff = 0.8

// Match fuzzy-matches a program name against the catalog and returns
// the portal code of the most similar program. A cutoff of 0 accepts
// the closest program no matter how dissimilar.
func (c *Catalog) Match(name string, cutoff float64) (string, bool) {
	target := textutil.NormalizeName(name)

	var bestSimilarity float64
	var bestCode string
	for _, programs := range c.faculties {
		for program, code := range programs {
			similarity := matchr.JaroWinkler(target, textutil.NormalizeName(program), false)
			if similarity > bestSimilarity {
				bestSimilarity = similarity
				bestCode = code
			}
		}
	}

	if bestCode == "" || bestSimilarity < cutoff {
		return "", false
	}
	return bestCode, true
}

// All lists the program names of one faculty, or of every faculty when
// faculty is empty.
func (c *Catalog) All(faculty string) []string {
	var names []string
	if faculty != "" {
		for program := range c.faculties[faculty] {
			names = append(names, program)
		}
		return names
	}
	for _, programs := range c.faculties {
		for program := range programs {
			names = append(names, program)
		}
	}
	return names
}

// Faculties lists the faculty names in the catalog.
func (c *Catalog) Faculties() []string {
	var names []string
	for faculty := range c.faculties {
		names = append(names, faculty)
	}
	return names
}
