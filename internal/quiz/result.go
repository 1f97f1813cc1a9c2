package quiz

// RoundResult groups the answer records of a single round by subtopic and
// derives the score aggregates the gate works on.
type RoundResult struct {
	subtopics []string
	records   map[string][]AnswerRecord
	total     int
	sum       float64
}

// NewRoundResult builds a RoundResult. Subtopics fixes the iteration order;
// records for subtopics outside that list are appended to the order as
// they are first seen.
func NewRoundResult(subtopics []string, records []AnswerRecord) *RoundResult {
	r := &RoundResult{records: make(map[string][]AnswerRecord)}
	seen := make(map[string]bool, len(subtopics))
	for _, s := range subtopics {
		if seen[s] {
			continue
		}
		seen[s] = true
		r.subtopics = append(r.subtopics, s)
	}
	for _, rec := range records {
		if !seen[rec.Subtopic] {
			seen[rec.Subtopic] = true
			r.subtopics = append(r.subtopics, rec.Subtopic)
		}
		r.records[rec.Subtopic] = append(r.records[rec.Subtopic], rec)
		r.total++
		r.sum += rec.Score
	}
	return r
}

// Subtopics returns the subtopics of the round in order.
func (r *RoundResult) Subtopics() []string {
	out := make([]string, len(r.subtopics))
	copy(out, r.subtopics)
	return out
}

// Records returns the answer records for a subtopic in submission order.
func (r *RoundResult) Records(subtopic string) []AnswerRecord {
	return r.records[subtopic]
}

// Count returns the number of answer records in the round.
func (r *RoundResult) Count() int {
	return r.total
}

// SubtopicAverage returns the mean score of a subtopic. ok is false when the
// subtopic has no records.
func (r *RoundResult) SubtopicAverage(subtopic string) (avg float64, ok bool) {
	recs := r.records[subtopic]
	if len(recs) == 0 {
		return 0, false
	}
	var sum float64
	for _, rec := range recs {
		sum += rec.Score
	}
	return sum / float64(len(recs)), true
}

// SubtopicAverages returns the mean score of every subtopic with at least
// one record. Subtopics without records are reported as 0.
func (r *RoundResult) SubtopicAverages() map[string]float64 {
	out := make(map[string]float64, len(r.subtopics))
	for _, s := range r.subtopics {
		avg, _ := r.SubtopicAverage(s)
		out[s] = avg
	}
	return out
}

// OverallAverage is the unweighted mean over every answer record of the
// round. Subtopics with more questions weigh more.
func (r *RoundResult) OverallAverage() float64 {
	if r.total == 0 {
		return 0
	}
	return r.sum / float64(r.total)
}

// WeakSubtopics returns, in round order, the subtopics whose average is
// below PassThreshold. A subtopic without records counts as weak.
func (r *RoundResult) WeakSubtopics() []string {
	var weak []string
	for _, s := range r.subtopics {
		avg, ok := r.SubtopicAverage(s)
		if !ok || avg < PassThreshold {
			weak = append(weak, s)
		}
	}
	return weak
}
