// Package readability estimates how hard a Portuguese text is to read.
// It is a self-contained, deterministic string->number heuristic kept behind
// a narrow interface so the rule pipeline can swap or test it independently.
package readability

import (
	"regexp"
	"strings"
	"unicode"
)

// Result is the outcome of one readability estimate.
type Result struct {
	// Score is the Flesch reading-ease score adapted for pt-BR. Higher is
	// easier; below ~50 is considered hard for a general audience.
	Score     float64
	Words     int
	Sentences int
	Syllables int

	// Grade is a coarse bucket derived from Score.
	Grade Grade
}

// Grade buckets the score the way the dashboard presents it.
type Grade string

const (
	GradeVeryEasy Grade = "very_easy"
	GradeEasy     Grade = "easy"
	GradeMedium   Grade = "medium"
	GradeHard     Grade = "hard"
	GradeVeryHard Grade = "very_hard"
)

var sentenceSplit = regexp.MustCompile(`[.!?…]+`)

// Estimate computes the pt-BR adapted Flesch reading ease of text.
// Empty or word-less input yields a neutral easy score so callers never
// flag blank content.
func Estimate(text string) Result {
	words := fields(text)
	if len(words) == 0 {
		return Result{Score: 100, Grade: GradeVeryEasy}
	}

	sentences := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}

	syllables := 0
	for _, w := range words {
		syllables += CountSyllables(w)
	}

	wordsPerSentence := float64(len(words)) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(len(words))

	// Flesch adapted for Brazilian Portuguese (Martins et al. calibration:
	// base 248.835 instead of 206.835).
	score := 248.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{
		Score:     score,
		Words:     len(words),
		Sentences: sentences,
		Syllables: syllables,
		Grade:     gradeFor(score),
	}
}

func gradeFor(score float64) Grade {
	switch {
	case score >= 75:
		return GradeVeryEasy
	case score >= 50:
		return GradeEasy
	case score >= 25:
		return GradeMedium
	case score >= 10:
		return GradeHard
	default:
		return GradeVeryHard
	}
}

func fields(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-'
	})
}

func isVowel(r rune) bool {
	switch unicode.ToLower(r) {
	case 'a', 'e', 'i', 'o', 'u',
		'á', 'é', 'í', 'ó', 'ú',
		'â', 'ê', 'ô', 'ã', 'õ', 'à', 'ü':
		return true
	}
	return false
}

// Portuguese falling diphthongs and the rising ones common enough to treat
// as one syllable. Vowel pairs outside this set form a hiatus (two syllables).
var diphthongs = map[string]struct{}{
	"ai": {}, "au": {}, "ei": {}, "eu": {}, "iu": {}, "oi": {}, "ou": {},
	"ui": {}, "ão": {}, "ãe": {}, "õe": {}, "ua": {}, "ue": {}, "uo": {},
	"ia": {}, "ie": {}, "io": {}, "qu": {}, "gu": {},
}

// CountSyllables counts syllables in one Portuguese word by scanning vowel
// groups and merging known diphthongs. Deterministic and accent-aware; a
// heuristic, not a hyphenation dictionary.
func CountSyllables(word string) int {
	runes := []rune(strings.ToLower(strings.TrimSpace(word)))
	if len(runes) == 0 {
		return 0
	}

	count := 0
	prevVowel := false
	for i, r := range runes {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		} else if v && prevVowel && i > 0 {
			pair := string(runes[i-1]) + string(r)
			if _, ok := diphthongs[pair]; !ok {
				// hiatus: sa-ú-de, co-or-de-nar
				count++
			}
		}
		prevVowel = v
	}

	if count == 0 {
		count = 1
	}
	return count
}
