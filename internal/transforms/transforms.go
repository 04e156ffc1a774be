// Package transforms provides composable text normalization steps applied
// before scoring transcripts. Filtering common words and standardizing
// abbreviations changes error rates substantially, so callers pick an
// explicit pipeline instead of relying on hidden defaults.
package transforms

import (
	"regexp"
	"strings"
)

// Transform rewrites a single string.
type Transform func(string) string

// Pipeline chains transforms and a final tokenization step.
type Pipeline struct {
	steps []Transform
}

// Compose builds a pipeline from the given steps, applied in order.
func Compose(steps ...Transform) *Pipeline {
	return &Pipeline{steps: steps}
}

// Apply runs all steps over the input string.
func (p *Pipeline) Apply(s string) string {
	for _, step := range p.steps {
		s = step(s)
	}
	return s
}

// Words runs all steps and splits the result into non-empty words.
func (p *Pipeline) Words(s string) []string {
	return splitNonEmpty(p.Apply(s))
}

func splitNonEmpty(s string) []string {
	parts := strings.Split(s, " ")
	words := make([]string, 0, len(parts))
	for _, w := range parts {
		if strings.TrimSpace(w) != "" {
			words = append(words, w)
		}
	}
	return words
}

var (
	multiSpaceRe    = regexp.MustCompile(`\s\s+`)
	kaldiNonWordsRe = regexp.MustCompile(`[<\[][^>\]]*[>\]]`)

	contractionRes = []struct {
		re          *regexp.Regexp
		replacement string
	}{
		{regexp.MustCompile(`won't`), "will not"},
		{regexp.MustCompile(`can't`), "can not"},
		{regexp.MustCompile(`let's`), "let us"},
		{regexp.MustCompile(`n't`), " not"},
		{regexp.MustCompile(`'re`), " are"},
		{regexp.MustCompile(`'s`), " is"},
		{regexp.MustCompile(`'d`), " would"},
		{regexp.MustCompile(`'ll`), " will"},
		{regexp.MustCompile(`'t`), " not"},
		{regexp.MustCompile(`'ve`), " have"},
		{regexp.MustCompile(`'m`), " am"},
	}
)

// RemoveMultipleSpaces collapses runs of whitespace into a single space.
func RemoveMultipleSpaces(s string) string {
	return multiSpaceRe.ReplaceAllString(s, " ")
}

// Strip trims leading and trailing whitespace.
func Strip(s string) string {
	return strings.TrimSpace(s)
}

// ToLowerCase lowercases the input.
func ToLowerCase(s string) string {
	return strings.ToLower(s)
}

// ToUpperCase uppercases the input.
func ToUpperCase(s string) string {
	return strings.ToUpper(s)
}

// ExpandCommonEnglishContractions rewrites frequent English contractions
// into their expanded forms. The list is not exhaustive.
func ExpandCommonEnglishContractions(s string) string {
	for _, c := range contractionRes {
		s = c.re.ReplaceAllString(s, c.replacement)
	}
	return s
}

// RemoveKaldiNonWords drops tokens wrapped in angle or square brackets,
// such as <unk> or [noise].
func RemoveKaldiNonWords(s string) string {
	return kaldiNonWordsRe.ReplaceAllString(s, "")
}

const whitespaceChars = " \t\n\r\v\f"

// RemoveWhiteSpace deletes every whitespace character. When replaceBySpace
// is set, each one becomes a single space instead.
func RemoveWhiteSpace(replaceBySpace bool) Transform {
	replacement := ""
	if replaceBySpace {
		replacement = " "
	}
	return func(s string) string {
		for _, c := range whitespaceChars {
			s = strings.ReplaceAll(s, string(c), replacement)
		}
		return s
	}
}

const punctuationChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// RemovePunctuation deletes ASCII punctuation characters.
func RemovePunctuation(s string) string {
	for _, c := range punctuationChars {
		s = strings.ReplaceAll(s, string(c), "")
	}
	return s
}

// RemoveSpecificWords deletes each listed token wherever it occurs.
func RemoveSpecificWords(words []string) Transform {
	return func(s string) string {
		for _, w := range words {
			s = strings.ReplaceAll(s, w, "")
		}
		return s
	}
}

// SubstituteWords replaces whole-word occurrences per the mapping.
func SubstituteWords(substitutions map[string]string) Transform {
	type sub struct {
		re          *regexp.Regexp
		replacement string
	}
	subs := make([]sub, 0, len(substitutions))
	for key, value := range substitutions {
		subs = append(subs, sub{regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\b`), value})
	}
	return func(s string) string {
		for _, sb := range subs {
			s = sb.re.ReplaceAllString(s, sb.replacement)
		}
		return s
	}
}

// SubstituteRegexes applies each pattern replacement in the mapping.
func SubstituteRegexes(substitutions map[string]string) Transform {
	type sub struct {
		re          *regexp.Regexp
		replacement string
	}
	subs := make([]sub, 0, len(substitutions))
	for key, value := range substitutions {
		subs = append(subs, sub{regexp.MustCompile(key), value})
	}
	return func(s string) string {
		for _, sb := range subs {
			s = sb.re.ReplaceAllString(s, sb.replacement)
		}
		return s
	}
}

// Default normalizes transcripts the way the word-level scorer expects:
// collapse spacing, trim and lowercase.
func Default() *Pipeline {
	return Compose(RemoveMultipleSpaces, Strip, ToLowerCase)
}

// Standardize is the heavier pipeline used when comparing transcripts from
// heterogeneous sources.
func Standardize() *Pipeline {
	return Compose(
		ToLowerCase,
		ExpandCommonEnglishContractions,
		RemoveKaldiNonWords,
		RemoveWhiteSpace(true),
	)
}
