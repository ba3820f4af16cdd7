// Package selector turns the question pool into the ordered question
// sequence of a session.
package selector

import (
	"errors"
	"math/rand/v2"
	"slices"

	"partyroom/internal/model"
)

// DefaultPerRate is how many questions are drawn from each rate category
const DefaultPerRate = 10

var ErrEmptyPool = errors.New("question pool is empty")

// Select builds a session's question sequence according to cfg
func Select(pool []model.Question, cfg model.SessionConfig, rng *rand.Rand) ([]model.Question, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	var out []model.Question
	switch cfg.Selection {
	case model.SelectionTag:
		out = TagPriority(pool, cfg.Tag, rng)
	case model.SelectionProgressive:
		out = Balanced(pool, perRate(cfg), rng, true)
	default:
		out = Balanced(pool, perRate(cfg), rng, false)
	}

	if len(out) == 0 {
		return nil, ErrEmptyPool
	}
	return out, nil
}

func perRate(cfg model.SessionConfig) int {
	if cfg.QuestionsPerRate > 0 {
		return cfg.QuestionsPerRate
	}
	return DefaultPerRate
}

// Balanced draws up to k questions from each rate category 1..5. Categories
// that come up short are topped up from the questions left over in the other
// categories. With ordered=false the whole result is shuffled; with
// ordered=true the result runs from rate 1 to rate 5, each category's slice
// in its own random order.
func Balanced(pool []model.Question, k int, rng *rand.Rand, ordered bool) []model.Question {
	if k <= 0 {
		k = DefaultPerRate
	}

	buckets := make(map[int][]model.Question, model.MaxRate)
	var leftover []model.Question
	for _, q := range pool {
		if q.HasValidRate() {
			buckets[q.Rate] = append(buckets[q.Rate], q)
		} else {
			leftover = append(leftover, q)
		}
	}

	selected := make([]model.Question, 0, k*model.MaxRate)
	shortfall := 0
	for rate := model.MinRate; rate <= model.MaxRate; rate++ {
		bucket := slices.Clone(buckets[rate])
		Shuffle(rng, bucket)

		take := min(k, len(bucket))
		selected = append(selected, bucket[:take]...)
		leftover = append(leftover, bucket[take:]...)
		shortfall += k - take
	}

	if shortfall > 0 && len(leftover) > 0 {
		Shuffle(rng, leftover)
		selected = append(selected, leftover[:min(shortfall, len(leftover))]...)
	}

	if ordered {
		// Stable keeps each category's random order; invalid rates sort last.
		slices.SortStableFunc(selected, func(a, b model.Question) int {
			return rateKey(a) - rateKey(b)
		})
		return selected
	}

	Shuffle(rng, selected)
	return selected
}

func rateKey(q model.Question) int {
	if q.HasValidRate() {
		return q.Rate
	}
	return model.MaxRate + 1
}

// TagPriority puts the questions whose tag matches the session tag first, in
// random order, followed by the rest of the pool in its original order.
func TagPriority(pool []model.Question, sessionTag string, rng *rand.Rand) []model.Question {
	want := tagFor(sessionTag)

	matching := make([]model.Question, 0, len(pool))
	rest := make([]model.Question, 0, len(pool))
	for _, q := range pool {
		if q.NormalizedTag() == want {
			matching = append(matching, q)
		} else {
			rest = append(rest, q)
		}
	}

	Shuffle(rng, matching)
	return append(matching, rest...)
}

func tagFor(sessionTag string) model.QuestionTag {
	switch sessionTag {
	case model.SessionTagFriends:
		return model.TagFriend
	case model.SessionTagRandom:
		return model.TagRandom
	default:
		return model.TagNone
	}
}
