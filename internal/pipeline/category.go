package pipeline

import (
	"strings"
	"unicode"
)

// categoryKeywords maps a topic to the words that signal it. Order
// decides ties.
var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"politics", []string{"election", "president", "senate", "congress", "parliament", "government", "minister", "vote", "voters", "policy", "democrat", "republican", "campaign", "law", "legislation"}},
	{"health", []string{"vaccine", "vaccines", "virus", "disease", "covid", "cancer", "health", "medical", "doctor", "hospital", "drug", "patients", "treatment", "diet", "vitamin"}},
	{"science", []string{"scientist", "scientists", "research", "study", "planet", "earth", "sun", "moon", "physics", "chemistry", "biology", "species", "evolution", "space", "nasa", "orbit", "atom"}},
	{"technology", []string{"software", "computer", "internet", "ai", "artificial", "intelligence", "smartphone", "app", "tech", "algorithm", "data", "robot", "chip", "cyber"}},
	{"economy", []string{"economy", "economic", "inflation", "gdp", "market", "stock", "stocks", "unemployment", "tax", "taxes", "business", "company", "trade", "price", "prices", "bank"}},
	{"environment", []string{"climate", "warming", "emissions", "carbon", "pollution", "environment", "renewable", "fossil", "deforestation", "temperature", "ocean", "wildlife"}},
	{"sports", []string{"football", "soccer", "basketball", "olympic", "olympics", "championship", "team", "player", "league", "tournament", "cup", "athlete"}},
	{"entertainment", []string{"movie", "film", "actor", "actress", "music", "album", "singer", "celebrity", "television", "tv", "show", "hollywood", "award"}},
	{"education", []string{"school", "schools", "university", "student", "students", "teacher", "teachers", "education", "college", "degree"}},
}

// DefaultCategory is used when no topic keyword appears
const DefaultCategory = "general"

// DetectCategory picks the topic whose keywords occur most often in text
func DetectCategory(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return DefaultCategory
	}

	freq := make(map[string]int, len(words))
	for _, w := range words {
		freq[w]++
	}

	best, bestHits := DefaultCategory, 0
	for _, c := range categoryKeywords {
		hits := 0
		for _, k := range c.keywords {
			hits += freq[k]
		}
		if hits > bestHits {
			best, bestHits = c.name, hits
		}
	}
	return best
}
