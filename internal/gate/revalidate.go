package gate

import (
	"slices"
	"strings"

	"github.com/abhisek/quizgate/internal/quiz"
)

// Admissible reports whether result alone allows advancing: the overall
// average and every subtopic average reach quiz.PassThreshold.
func Admissible(result *quiz.RoundResult) bool {
	if result.Count() == 0 || result.OverallAverage() < quiz.PassThreshold {
		return false
	}
	for _, s := range result.Subtopics() {
		avg, ok := result.SubtopicAverage(s)
		if !ok || avg < quiz.PassThreshold {
			return false
		}
	}
	return true
}

// Revalidate reconciles the oracle's verdict with the round's scores.
//
// Every weak subtopic of the round is added to the additional list and
// every round subtopic that passed is removed from it. Subtopics the
// oracle proposes that were not scored this round are kept as coverage
// gaps. The list is de-duplicated case-insensitively, keeping the round's
// spelling where one exists. Advance is then recomputed from the scores
// and the final list, whatever the oracle said.
func Revalidate(verdict quiz.GateVerdict, result *quiz.RoundResult) quiz.GateVerdict {
	canonical := make(map[string]string)
	for _, s := range result.Subtopics() {
		canonical[fold(s)] = s
	}
	weak := make(map[string]bool)
	for _, s := range result.WeakSubtopics() {
		weak[fold(s)] = true
	}

	seen := make(map[string]bool)
	additional := make([]string, 0, len(verdict.AdditionalSubtopics))
	add := func(s string) {
		key := fold(s)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		if c, ok := canonical[key]; ok {
			s = c
		}
		additional = append(additional, strings.TrimSpace(s))
	}

	for _, s := range verdict.AdditionalSubtopics {
		if _, scored := canonical[fold(s)]; scored && !weak[fold(s)] {
			continue
		}
		add(s)
	}
	for _, s := range result.WeakSubtopics() {
		add(s)
	}

	advance := Admissible(result) && len(additional) == 0

	out := verdict
	out.OracleAdvance = verdict.Advance
	out.Advance = advance
	out.AdditionalSubtopics = additional
	out.Overridden = advance != verdict.Advance || !sameSet(additional, verdict.AdditionalSubtopics)
	return out
}

func sameSet(a, b []string) bool {
	fa := foldSet(a)
	fb := foldSet(b)
	return slices.Equal(fa, fb)
}

func foldSet(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if k := fold(s); k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
