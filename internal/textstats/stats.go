package textstats

import (
	"sort"
	"strings"
	"unicode"
)

// Stats summarizes the words of one text message.
type Stats struct {
	Total  int         `json:"total"`
	Unique int         `json:"unique"`
	Top    []WordCount `json:"top,omitempty"`
}

// WordCount is one entry of the frequency table.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Count computes word statistics for text. Words are whitespace-separated
// tokens; frequency counting is case-insensitive and strips surrounding
// punctuation. topN limits the frequency table, 0 disables it.
func Count(text string, topN int) Stats {
	words := strings.Fields(text)
	stats := Stats{Total: len(words)}

	freq := make(map[string]int)
	for _, w := range words {
		normalized := normalize(w)
		if normalized == "" {
			continue
		}
		freq[normalized]++
	}
	stats.Unique = len(freq)

	if topN <= 0 || len(freq) == 0 {
		return stats
	}

	top := make([]WordCount, 0, len(freq))
	for word, count := range freq {
		top = append(top, WordCount{Word: word, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Word < top[j].Word
	})
	if len(top) > topN {
		top = top[:topN]
	}
	stats.Top = top

	return stats
}

func normalize(word string) string {
	trimmed := strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.ToLower(trimmed)
}
