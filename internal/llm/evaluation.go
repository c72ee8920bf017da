package llm

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrNoScore = errors.New("evaluation has no score")

var (
	scorePattern      = regexp.MustCompile(`(?i)nota(?:\s+final)?\W{0,4}(\d{1,2}(?:[.,]\d+)?)`)
	idealPattern      = regexp.MustCompile(`(?i)[*#\s]*resposta ideal\s*[*]*\s*[:\-]?\s*[*]*`)
	scoreLineLeftover = regexp.MustCompile(`^[\s*#:\-/0-9.,()]*$`)
)

type Evaluation struct {
	Score       float64
	Feedback    string
	ModelAnswer string
}

// ParseEvaluation reads the "Nota: X,X" score, the feedback and an optional ideal answer
// out of a grader reply. The score is clamped to [0, 10] and rounded to one decimal.
func ParseEvaluation(raw string) (Evaluation, error) {
	loc := scorePattern.FindStringSubmatchIndex(raw)
	if loc == nil {
		return Evaluation{}, ErrNoScore
	}
	score, err := strconv.ParseFloat(strings.Replace(raw[loc[2]:loc[3]], ",", ".", 1), 64)
	if err != nil {
		return Evaluation{}, ErrNoScore
	}
	score = math.Round(math.Min(math.Max(score, 0), 10)*10) / 10

	body := dropScore(raw, loc[0], loc[1])

	var ideal string
	if m := idealPattern.FindStringIndex(body); m != nil {
		ideal = strings.TrimSpace(body[m[1]:])
		body = body[:m[0]]
	}

	return Evaluation{
		Score:       score,
		Feedback:    strings.TrimSpace(body),
		ModelAnswer: ideal,
	}, nil
}

// dropScore removes the score mention. When the score sits on a line of its own the whole line goes.
func dropScore(raw string, start, end int) string {
	lineStart := strings.LastIndexByte(raw[:start], '\n') + 1
	lineEnd := len(raw)
	if i := strings.IndexByte(raw[end:], '\n'); i >= 0 {
		lineEnd = end + i
	}
	rest := raw[lineStart:start] + raw[end:lineEnd]
	if scoreLineLeftover.MatchString(rest) {
		return raw[:lineStart] + strings.TrimPrefix(raw[lineEnd:], "\n")
	}
	return raw[:start] + raw[end:]
}
