package identify

import (
	"math"
	"sort"
	"sync"

	"fpmatch/internal/match"
	"fpmatch/internal/minutiae"
)

// GalleryEntry pairs an enrolled template with its external id.
type GalleryEntry struct {
	ID       string
	Template minutiae.Template
}

// Params configures the 1-to-N accept policy.
type Params struct {
	MatchParams    match.Params
	RotationGateDeg float64
	ScoreThresh    float64
	InliersThresh  int
	Margin         float64
}

// DefaultParams returns the spec's rotation gate=40deg, score>=0.25,
// inliers>=12, margin>=0.07 configuration.
func DefaultParams() Params {
	return Params{
		MatchParams:     match.DefaultParams(),
		RotationGateDeg: 40,
		ScoreThresh:     0.25,
		InliersThresh:   12,
		Margin:          0.07,
	}
}

// VerifyParams configures the 1-of-K enrolment-acceptance policy.
type VerifyParams struct {
	MatchParams   match.Params
	InliersThresh int
	ScoreThresh   float64
}

// DefaultVerifyParams returns inliers>=10, score>=0.22.
func DefaultVerifyParams() VerifyParams {
	return VerifyParams{
		MatchParams:   match.DefaultParams(),
		InliersThresh: 10,
		ScoreThresh:   0.22,
	}
}

// Identify runs the matcher against every gallery entry concurrently
// (goroutine-per-entry + sync.WaitGroup over a slot-indexed result array,
// mirroring internal/via/detector.go::BatchDetectVias rather than a
// channel, to keep ranking deterministic), drops candidates whose
// recovered rotation exceeds RotationGateDeg, ranks the remainder by
// (score, inliers) descending, and accepts the best if it clears the score
// and inlier thresholds with a sufficient margin over the runner-up.
func Identify(probe minutiae.Template, gallery []GalleryEntry, p Params) Decision {
	results := make([]Candidate, len(gallery))

	var wg sync.WaitGroup
	for i, entry := range gallery {
		wg.Add(1)
		go func(i int, entry GalleryEntry) {
			defer wg.Done()
			res := match.Match(probe, entry.Template, p.MatchParams)
			results[i] = Candidate{
				ID:       entry.ID,
				Result:   res,
				AngleDeg: math.Abs(res.RotationRad * 180 / math.Pi),
			}
		}(i, entry)
	}
	wg.Wait()

	var ranking []Candidate
	for _, c := range results {
		if !c.Result.OK {
			continue
		}
		if c.AngleDeg > p.RotationGateDeg {
			continue
		}
		ranking = append(ranking, c)
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Result.Score != ranking[j].Result.Score {
			return ranking[i].Result.Score > ranking[j].Result.Score
		}
		return ranking[i].Result.Inliers > ranking[j].Result.Inliers
	})

	decision := Decision{Ranking: ranking}
	if len(ranking) == 0 {
		return decision
	}

	best := ranking[0]
	if best.Result.Score < p.ScoreThresh || best.Result.Inliers < p.InliersThresh {
		return decision
	}
	if len(ranking) > 1 {
		second := ranking[1]
		if best.Result.Score-second.Result.Score < p.Margin {
			return decision
		}
	}

	decision.Best = &Best{
		ID:       best.ID,
		Score:    best.Result.Score,
		Inliers:  best.Result.Inliers,
		AngleDeg: best.AngleDeg,
	}
	return decision
}

// VerifyKOf runs the matcher against each of K enrolment templates and
// accepts iff any result clears InliersThresh and ScoreThresh. The
// max-by-(inliers, score) candidate is reported as "best" regardless of the
// accept outcome, per spec.md's verification variant.
func VerifyKOf(probe minutiae.Template, templates []GalleryEntry, p VerifyParams) VerifyResult {
	all := make([]Candidate, len(templates))

	var wg sync.WaitGroup
	for i, entry := range templates {
		wg.Add(1)
		go func(i int, entry GalleryEntry) {
			defer wg.Done()
			res := match.Match(probe, entry.Template, p.MatchParams)
			all[i] = Candidate{
				ID:       entry.ID,
				Result:   res,
				AngleDeg: math.Abs(res.RotationRad * 180 / math.Pi),
			}
		}(i, entry)
	}
	wg.Wait()

	accepted := false
	bestIdx := -1
	for i, c := range all {
		if !c.Result.OK {
			continue
		}
		if bestIdx == -1 {
			bestIdx = i
		} else if better(c, all[bestIdx]) {
			bestIdx = i
		}
		if c.Result.Inliers >= p.InliersThresh && c.Result.Score >= p.ScoreThresh {
			accepted = true
		}
	}

	var best Candidate
	if bestIdx >= 0 {
		best = all[bestIdx]
	}

	return VerifyResult{Accepted: accepted, Best: best, All: all}
}

func better(a, b Candidate) bool {
	if a.Result.Inliers != b.Result.Inliers {
		return a.Result.Inliers > b.Result.Inliers
	}
	return a.Result.Score > b.Result.Score
}
