package sources

import (
	"strings"
	"unicode"
)

// fuzzyThreshold is the share of a pick's significant words that must
// appear in a candidate title for a fuzzy match.
const fuzzyThreshold = 0.6

// MatchHeadlines maps headlines returned by a ranking model back to indices
// into titles. Each pick is matched exactly (case-insensitive) first, then
// by significant-word overlap. A title is matched at most once; picks that
// match nothing are skipped. The result keeps the order of picks.
func MatchHeadlines(picks, titles []string) []int {
	used := make([]bool, len(titles))
	lowered := make([]string, len(titles))
	wordSets := make([]map[string]bool, len(titles))
	for i, t := range titles {
		lowered[i] = strings.ToLower(strings.TrimSpace(t))
		wordSets[i] = wordSet(significantWords(t))
	}

	var out []int
	for _, pick := range picks {
		p := strings.ToLower(strings.TrimSpace(pick))
		if p == "" {
			continue
		}

		idx := -1
		for i := range titles {
			if !used[i] && lowered[i] == p {
				idx = i
				break
			}
		}

		if idx < 0 {
			words := significantWords(pick)
			if len(words) == 0 {
				continue
			}
			best := 0.0
			for i := range titles {
				if used[i] {
					continue
				}
				hits := 0
				for _, w := range words {
					if wordSets[i][w] {
						hits++
					}
				}
				ratio := float64(hits) / float64(len(words))
				if ratio >= fuzzyThreshold && ratio > best {
					best = ratio
					idx = i
				}
			}
		}

		if idx >= 0 {
			used[idx] = true
			out = append(out, idx)
		}
	}
	return out
}

// significantWords lowercases s, trims punctuation from each word and keeps
// words longer than three characters.
func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if len([]rune(w)) > 3 {
			out = append(out, w)
		}
	}
	return out
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
