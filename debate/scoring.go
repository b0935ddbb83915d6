package debate

import "sort"

// Scoring rule: each sub-score is clamped to [0,10] and the total is the
// flat, unweighted sum (0-30). The product documentation also mentions a
// 40/30/30 weighting, but observed behavior has always been the flat sum
// and the total==sum invariant depends on it, so the flat rule is the one
// implemented here.

// clampScore bounds a sub-score to [0,10].
func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}

// Normalize clamps the sub-scores and recomputes the total as their sum.
// Any total reported by the judge is discarded.
func (s *ScoreSet) Normalize() {
	s.Logic = clampScore(s.Logic)
	s.Attack = clampScore(s.Attack)
	s.Construct = clampScore(s.Construct)
	s.Total = s.Logic + s.Attack + s.Construct
}

// Normalize normalizes both debaters' score sets.
func (s *Scores) Normalize() {
	s.A.Normalize()
	s.B.Normalize()
}

// DecideWinner picks the debater with the strictly greater total.
// Tie-break, in order: higher logic sub-score, higher attack sub-score,
// then debater A as the first mover. Both sets must be normalized first.
func DecideWinner(a, b ScoreSet) Debater {
	switch {
	case a.Total != b.Total:
		if a.Total > b.Total {
			return DebaterA
		}
		return DebaterB
	case a.Logic != b.Logic:
		if a.Logic > b.Logic {
			return DebaterA
		}
		return DebaterB
	case a.Attack != b.Attack:
		if a.Attack > b.Attack {
			return DebaterA
		}
		return DebaterB
	default:
		return DebaterA
	}
}

// BreakCandidate is one scored quote nominated by the judge.
type BreakCandidate struct {
	AI       Debater `json:"ai"`
	Round    int     `json:"round"`
	Category string  `json:"category"`
	Score    int     `json:"score"`
	Quote    string  `json:"quote"`
}

// SelectBreakShot picks the candidate with the highest score. Ties are
// broken by first occurrence in round-then-debater order (round 1 before
// round 2, debater A before debater B). Returns false when no candidate
// has a usable quote.
func SelectBreakShot(candidates []BreakCandidate) (BreakShot, bool) {
	usable := make([]BreakCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Quote == "" || !c.AI.IsValid() {
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		return BreakShot{}, false
	}

	sort.SliceStable(usable, func(i, j int) bool {
		if usable[i].Round != usable[j].Round {
			return usable[i].Round < usable[j].Round
		}
		return usable[i].AI == DebaterA && usable[j].AI == DebaterB
	})

	best := usable[0]
	for _, c := range usable[1:] {
		if clampScore(c.Score) > clampScore(best.Score) {
			best = c
		}
	}

	return BreakShot{
		AI:       best.AI,
		Category: best.Category,
		Score:    clampScore(best.Score),
		Quote:    best.Quote,
	}, true
}
