package placement

import (
	"errors"
	"math/rand/v2"
	"sort"

	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/questionbank"
)

// candidate is the question chosen to represent one topic.
type candidate struct {
	question questionbank.Question
	distance int
}

// selectQuestions builds the question queue for a new session: one question
// per topic, the one nearest target, topics ranked by that distance, the
// best limit kept and then shuffled. Ties are broken by rng. It returns the
// IDs of malformed questions that were skipped.
func selectQuestions(pool []questionbank.Question, target cefr.Level, limit int, rng *rand.Rand) ([]questionbank.Question, []string, error) {
	var skipped []string
	byTopic := make(map[string][]questionbank.Question)
	usable := 0

	for i := range pool {
		q := pool[i]
		if err := questionbank.Validate(&q); err != nil {
			var mErr *questionbank.ErrMalformedQuestion
			if errors.As(err, &mErr) {
				skipped = append(skipped, q.ID)
				continue
			}
			return nil, nil, err
		}
		byTopic[q.Topic] = append(byTopic[q.Topic], q)
		usable++
	}

	if len(byTopic) < limit {
		return nil, skipped, &ErrInsufficientQuestionPool{
			Questions: usable,
			Topics:    len(byTopic),
			Required:  limit,
		}
	}

	// Map iteration order is random; sort topics so rng alone decides ties.
	topics := make([]string, 0, len(byTopic))
	for t := range byTopic {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	cands := make([]candidate, 0, len(topics))
	for _, t := range topics {
		cands = append(cands, pickNearest(byTopic[t], target, rng))
	}

	rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].distance < cands[j].distance
	})
	cands = cands[:limit]

	queue := make([]questionbank.Question, len(cands))
	for i, c := range cands {
		queue[i] = c.question
	}
	rng.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })

	return queue, skipped, nil
}

// pickNearest returns the question nearest target, choosing uniformly among
// equally near ones.
func pickNearest(qs []questionbank.Question, target cefr.Level, rng *rand.Rand) candidate {
	sorted := append([]questionbank.Question(nil), qs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	best := candidate{distance: -1}
	ties := 0
	for _, q := range sorted {
		d := cefr.Distance(q.Level, target)
		switch {
		case best.distance < 0 || d < best.distance:
			best = candidate{question: q, distance: d}
			ties = 1
		case d == best.distance:
			// Reservoir sampling over the tied questions.
			ties++
			if rng.IntN(ties) == 0 {
				best.question = q
			}
		}
	}
	return best
}

// nextIndex returns the queue index of the question to serve next.
func nextIndex(queue []questionbank.Question, current cefr.Level, matchLevel bool) int {
	if !matchLevel {
		return 0
	}
	best, bestDist := 0, cefr.Count()
	for i, q := range queue {
		if d := cefr.Distance(q.Level, current); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
