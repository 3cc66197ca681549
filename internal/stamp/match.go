package stamp

import (
	"image"
	"sort"
	"strings"
	"unicode"

	"github.com/ironsheep/disc-photo-mcp/internal/catalog"
)

const (
	nameWeight         = 2.0
	manufacturerWeight = 1.0
	minTokenLen        = 2
)

// Match is a catalog disc that the stamp text points to.
type Match struct {
	Disc  catalog.Disc `json:"disc"`
	Score float64      `json:"score"`

	// Matched lists the recognized tokens that contributed to Score.
	Matched []string `json:"matched"`
}

// Identification is the result of reading a stamp and matching it.
type Identification struct {
	Reading *Reading `json:"reading"`
	Matches []Match  `json:"matches"`
}

// Tokenize lower-cases text and splits it on everything that is not a
// letter or digit. Tokens shorter than two characters are dropped.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}

// compact joins the letters and digits of s, lower-cased.
func compact(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), "")
}

// Identify scores every disc in c against text and returns up to limit
// matches, best first. Ties are broken by name. A limit of zero or less
// returns every match.
func Identify(text string, c *catalog.Catalog, limit int) []Match {
	tokens := Tokenize(text)
	if len(tokens) == 0 || c == nil {
		return []Match{}
	}
	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}
	joined := compact(text)

	matches := []Match{}
	for _, d := range c.Discs() {
		var matched []string
		score := 0.0

		nameTokens := Tokenize(d.Name)
		if hits := countHits(nameTokens, present, &matched); hits > 0 {
			score += nameWeight * float64(hits) / float64(len(nameTokens))
		} else if name := compact(d.Name); len(name) >= 3 && strings.Contains(joined, name) {
			score += nameWeight
			matched = append(matched, name)
		}

		if mfr := Tokenize(d.Manufacturer); len(mfr) > 0 {
			if hits := countHits(mfr, present, &matched); hits > 0 {
				score += manufacturerWeight * float64(hits) / float64(len(mfr))
			}
		}

		if score > 0 {
			matches = append(matches, Match{Disc: d, Score: score, Matched: matched})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return strings.ToLower(matches[i].Disc.Name) < strings.ToLower(matches[j].Disc.Name)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func countHits(tokens []string, present map[string]bool, matched *[]string) int {
	hits := 0
	for _, t := range tokens {
		if present[t] {
			hits++
			*matched = append(*matched, t)
		}
	}
	return hits
}

// Identify reads the stamp on img and matches it against c.
func (r *Reader) Identify(img image.Image, c *catalog.Catalog, limit int) (*Identification, error) {
	reading, err := r.ReadText(img)
	if err != nil {
		return nil, err
	}
	return &Identification{
		Reading: reading,
		Matches: Identify(reading.Text, c, limit),
	}, nil
}
