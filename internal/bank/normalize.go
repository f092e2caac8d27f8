// Package bank turns stored question banks into session-ready question pools.
package bank

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"exam-drill-service/internal/domain"
)

var labelPrefix = regexp.MustCompile(`^[A-Z]\.\s*`)

// Normalize converts every raw item of ds into a domain question. Question ids
// are "<dataset id>-<index>" and stay stable across reloads. When original is
// given, item i is linked to original item i.
func Normalize(ds domain.Dataset, original *domain.Dataset) []domain.Question {
	out := make([]domain.Question, 0, len(ds.Questions))
	source := ds.Name
	if source == "" {
		source = ds.ID
	}
	for i, raw := range ds.Questions {
		q := domain.Question{
			ID:            ds.ID + "-" + strconv.Itoa(i),
			Prompt:        expandNewlines(raw.Question),
			Options:       ParseOptions(raw.Options),
			CorrectAnswer: NormalizeAnswer(raw.Answer),
			Explanation:   expandNewlines(raw.Explanation),
			Source:        source,
		}
		if original != nil && i < len(original.Questions) {
			orig := original.Questions[i]
			q.OriginalPrompt = expandNewlines(orig.Question)
			q.OriginalExplanation = expandNewlines(orig.Explanation)
			q.OriginalOptions = make([]string, len(orig.Options))
			for j, opt := range orig.Options {
				q.OriginalOptions[j] = StripLabel(opt)
			}
		}
		out = append(out, q)
	}
	return out
}

// ParseOptions splits "A. text" strings into label and display text.
func ParseOptions(raw []string) []domain.Option {
	if len(raw) == 0 {
		return nil
	}
	opts := make([]domain.Option, len(raw))
	for i, r := range raw {
		opts[i] = domain.Option{Label: OptionLabel(r), Text: StripLabel(r)}
	}
	return opts
}

// OptionLabel is the trimmed text before the first '.'.
func OptionLabel(raw string) string {
	head, _, _ := strings.Cut(raw, ".")
	return strings.TrimSpace(head)
}

// StripLabel removes a leading "X. " label from option text.
func StripLabel(raw string) string {
	return labelPrefix.ReplaceAllString(raw, "")
}

// NormalizeAnswer canonicalizes a stored answer: arrays are joined, spaces and
// commas dropped, letters upper-cased and sorted. "c, a" and ["C","A"] both become "AC".
func NormalizeAnswer(raw any) string {
	var s string
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		s = v
	case []string:
		s = strings.Join(v, "")
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		s = strings.Join(parts, "")
	default:
		s = fmt.Sprint(v)
	}
	letters := make([]rune, 0, len(s))
	for _, r := range strings.ToUpper(s) {
		if r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		letters = append(letters, r)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	out := letters[:0]
	for i, r := range letters {
		if i > 0 && r == letters[i-1] {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func expandNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
