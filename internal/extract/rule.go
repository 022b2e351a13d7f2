package extract

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

// Candidate is a claim statement proposed by a strategy
type Candidate struct {
	Text   string
	Offset int // Byte offset in the source text, -1 when unknown
}

// Strategy proposes claim statements from text
type Strategy interface {
	Name() string
	Extract(ctx context.Context, text string) ([]Candidate, error)
}

// RuleStrategy is the deterministic sentence-level strategy
type RuleStrategy struct {
	minLength int
	maxLength int
}

// NewRuleStrategy creates a rule strategy with sentence length bounds in characters
func NewRuleStrategy(minLength, maxLength int) *RuleStrategy {
	if minLength <= 0 {
		minLength = 15
	}
	if maxLength <= 0 {
		maxLength = 500
	}
	return &RuleStrategy{minLength: minLength, maxLength: maxLength}
}

// Name returns the strategy name
func (r *RuleStrategy) Name() string {
	return "rule"
}

// indicators mark a sentence as asserting something checkable
var indicators = []string{
	"is", "are", "was", "were", "be", "been", "has", "have", "had",
	"will", "can", "could", "would", "does", "did", "may", "must", "shall",
	"according to", "percent", "founded", "discovered", "invented",
	"originated", "established", "developed", "created", "introduced",
	"causes", "caused", "contains", "includes", "leads to", "results in",
	"means", "consists of", "comprises",
}

// imperativeStarts open instructions rather than statements
var imperativeStarts = map[string]bool{
	"click": true, "please": true, "let's": true, "lets": true, "consider": true,
	"imagine": true, "try": true, "see": true, "read": true, "subscribe": true,
	"share": true, "follow": true, "visit": true, "check": true, "sign": true,
	"don't": true, "do": true, "make": true, "remember": true, "note": true,
	"look": true, "go": true, "join": true, "download": true, "call": true,
}

// discourseMarkers are stripped from the start of a claim
var discourseMarkers = []string{
	"however,", "also,", "moreover,", "furthermore,", "in addition,",
	"additionally,", "meanwhile,", "in fact,", "indeed,", "besides,",
	"and ", "but ", "so ", "also ", "yet ",
}

var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true, "st": true,
	"jr": true, "sr": true, "vs": true, "etc": true, "inc": true, "ltd": true,
	"co": true, "corp": true, "no": true, "e.g": true, "i.e": true, "u.s": true,
	"u.k": true, "jan": true, "feb": true, "mar": true, "apr": true, "aug": true,
	"sept": true, "oct": true, "nov": true, "dec": true, "approx": true,
}

var (
	digitRe      = regexp.MustCompile(`\d`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	determiners  = map[string]bool{
		"the": true, "a": true, "an": true, "this": true, "that": true,
		"these": true, "those": true, "its": true, "their": true, "his": true,
		"her": true, "our": true, "my": true, "your": true, "some": true,
	}
	// nonVerbs end in "s" but are never the main verb
	nonVerbs = map[string]bool{
		"this": true, "thus": true, "always": true, "perhaps": true, "less": true,
		"unless": true, "whereas": true, "sometimes": true, "besides": true,
		"towards": true, "across": true, "news": true, "series": true,
		"species": true, "hers": true, "ours": true, "yours": true, "theirs": true,
	}
)

// sentence is a raw split with its terminator and byte offset
type sentence struct {
	text       string
	terminator rune
	offset     int
}

// Extract returns declarative sentences that look like factual statements
func (r *RuleStrategy) Extract(ctx context.Context, text string) ([]Candidate, error) {
	var out []Candidate
	var prev string

	for _, s := range splitSentences(text) {
		if s.terminator == '?' || s.terminator == '!' {
			continue
		}

		claim := normalizeStatement(s.text)
		words := strings.Fields(claim)
		if len(words) < 3 || len(claim) < r.minLength || len(claim) > r.maxLength {
			continue
		}
		if imperativeStarts[strings.ToLower(strings.Trim(words[0], ",."))] {
			continue
		}
		if !isFactual(claim) {
			continue
		}

		claim = resolvePronoun(claim, prev)
		out = append(out, Candidate{Text: claim, Offset: s.offset})
		prev = claim
	}

	return out, nil
}

// splitSentences splits on . ! ? ; followed by whitespace, and on line
// breaks. Periods after known abbreviations and single initials do not split.
func splitSentences(text string) []sentence {
	var sentences []sentence
	start := 0

	emit := func(end int, term rune) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
			sentences = append(sentences, sentence{text: trimmed, terminator: term, offset: start + lead})
		}
	}

	for i, r := range text {
		switch r {
		case '\n':
			emit(i, 0)
			start = i + 1
		case '.', '!', '?', ';':
			next := i + 1
			if next < len(text) && !isSpaceByte(text[next]) {
				continue
			}
			if r == '.' && isAbbreviation(text[start:i]) {
				continue
			}
			emit(next, r)
			start = next
		}
	}
	emit(len(text), 0)

	return sentences
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// isAbbreviation reports whether the word before a period is an
// abbreviation or an initial
func isAbbreviation(before string) bool {
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return false
	}
	last := strings.ToLower(strings.TrimLeft(fields[len(fields)-1], "(\"'"))
	if len([]rune(last)) == 1 && unicode.IsLetter([]rune(last)[0]) {
		return true
	}
	return abbreviations[last]
}

// normalizeStatement collapses whitespace, strips leading discourse markers
// and ensures a terminal period
func normalizeStatement(s string) string {
	s = whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")

	lower := strings.ToLower(s)
	for _, m := range discourseMarkers {
		if strings.HasPrefix(lower, m) {
			s = strings.TrimSpace(s[len(m):])
			break
		}
	}

	s = strings.TrimRight(s, ".;:, ")
	if s == "" {
		return ""
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes) + "."
}

// isFactual looks for a verb-like token, an indicator phrase or a number
func isFactual(claim string) bool {
	lower := strings.ToLower(claim)
	if digitRe.MatchString(lower) {
		return true
	}

	padded := " " + strings.Trim(lower, ".") + " "
	for _, ind := range indicators {
		if strings.Contains(padded, " "+ind+" ") {
			return true
		}
	}

	tokens := strings.Fields(strings.Trim(lower, "."))
	for i := 1; i < len(tokens); i++ {
		tok := strings.Trim(tokens[i], ",;:\"'()")
		if len(tok) <= 3 {
			continue
		}
		if strings.HasSuffix(tok, "ed") {
			return true
		}
		// Third-person verbs ("orbits", "grows") follow a noun, not a determiner
		if strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") &&
			!strings.HasSuffix(tok, "us") && !nonVerbs[tok] && !determiners[tokens[i-1]] {
			return true
		}
	}
	return false
}

// resolvePronoun replaces a leading "It" or "They" with the subject of
// the previous claim when that subject is a short noun phrase
func resolvePronoun(claim, prev string) string {
	if prev == "" {
		return claim
	}

	var singular bool
	switch {
	case strings.HasPrefix(claim, "It "):
		singular = true
	case strings.HasPrefix(claim, "They "):
		singular = false
	default:
		return claim
	}

	subject, plural, ok := subjectOf(prev)
	if !ok || plural == singular {
		return claim
	}

	rest := claim[strings.IndexByte(claim, ' ')+1:]
	return subject + " " + rest
}

// subjectOf returns the words before the first copula of s
func subjectOf(s string) (subject string, plural bool, ok bool) {
	words := strings.Fields(strings.TrimSuffix(s, "."))
	for i, w := range words {
		switch strings.ToLower(w) {
		case "is", "was", "has":
			plural = false
		case "are", "were", "have":
			plural = true
		default:
			continue
		}
		if i == 0 || i > 6 {
			return "", false, false
		}
		first := strings.ToLower(words[0])
		if first == "it" || first == "they" || first == "this" || first == "there" {
			return "", false, false
		}
		return strings.Join(words[:i], " "), plural, true
	}
	return "", false, false
}
