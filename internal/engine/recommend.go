package engine

import (
	"math"
	"sort"

	"peakform/training-engine/internal/domain"
)

// Scoring component constants. Higher total score means a better fit.
const (
	difficultyFitBase     = 10.0
	difficultyFitPenalty  = 2.0
	categoryPreferenceBon = 15.0
	durationFitBase       = 10.0
	noveltyBonus          = 5.0
	activityPatternBonus  = 5.0
)

// Goal-alignment contributions (summed over all goals the user holds).
const (
	weightLossBonus          = 8.0
	strengthBuildingBonus    = 10.0
	enduranceImprovementBon  = 7.0
	militaryPreparationBonus = 15.0
	generalFitnessBonus      = 5.0
)

// ScoredProgram pairs a catalog program with its fit score for a profile.
type ScoredProgram struct {
	Program domain.Program `json:"program"`
	Score   float64        `json:"score"`
}

// ScoreProgram rates one catalog program against a fitness profile. The
// components are additive and independent; see each helper for the rule.
func ScoreProgram(p domain.Program, profile *domain.UserFitnessProfile) float64 {
	score := difficultyFit(p, profile)
	score += categoryPreference(p, profile)
	score += durationFit(p, profile)
	score += goalAlignment(p, profile)
	score += activityPatternFit(p, profile)
	if !profile.HasCompletedCategory(p.Category) {
		score += noveltyBonus
	}
	return score
}

// difficultyFit rewards programs near the user's level: 10 minus 2 per level
// of distance, floored at zero.
func difficultyFit(p domain.Program, profile *domain.UserFitnessProfile) float64 {
	distance := math.Abs(float64(p.Difficulty.LevelIndex() - profile.CurrentLevel.LevelIndex()))
	return math.Max(0, difficultyFitBase-difficultyFitPenalty*distance)
}

func categoryPreference(p domain.Program, profile *domain.UserFitnessProfile) float64 {
	for _, c := range profile.PreferredCategories {
		if c == p.Category {
			return categoryPreferenceBon
		}
	}
	return 0
}

// durationFit takes the best match across the user's preferred durations.
func durationFit(p domain.Program, profile *domain.UserFitnessProfile) float64 {
	best := 0.0
	for _, preferred := range profile.PreferredDurations {
		fit := math.Max(0, durationFitBase-math.Abs(float64(p.DurationWeeks-preferred)))
		if fit > best {
			best = fit
		}
	}
	return best
}

func goalAlignment(p domain.Program, profile *domain.UserFitnessProfile) float64 {
	total := 0.0
	for _, goal := range profile.Goals {
		switch goal {
		case domain.GoalWeightLoss:
			if p.Category == domain.CategoryFitness || p.Difficulty.AtLeast(domain.DifficultyIntermediate) {
				total += weightLossBonus
			}
		case domain.GoalStrengthBuilding:
			if p.Category == domain.CategoryMilitary || p.Difficulty.AtLeast(domain.DifficultyAdvanced) {
				total += strengthBuildingBonus
			}
		case domain.GoalEnduranceImprovement:
			if p.DurationWeeks >= 8 {
				total += enduranceImprovementBon
			}
		case domain.GoalMilitaryPreparation:
			if p.Category == domain.CategoryMilitary {
				total += militaryPreparationBonus
			}
		case domain.GoalGeneralFitness:
			total += generalFitnessBonus
		}
	}
	return total
}

// activityPatternFit matches training volume habits to program difficulty.
func activityPatternFit(p domain.Program, profile *domain.UserFitnessProfile) float64 {
	total := 0.0
	if profile.AverageWorkoutsPerWeek >= 4 && p.Difficulty.AtLeast(domain.DifficultyIntermediate) {
		total += activityPatternBonus
	}
	if profile.AverageWorkoutsPerWeek <= 3 && p.Difficulty.LevelIndex() <= domain.DifficultyIntermediate.LevelIndex() {
		total += activityPatternBonus
	}
	return total
}

// RankPrograms scores every candidate not excluded and returns the top
// `limit`, highest first. The sort is stable so catalog order breaks ties.
func RankPrograms(catalog []domain.Program, profile *domain.UserFitnessProfile, excluded func(domain.Program) bool, limit int) []ScoredProgram {
	var scored []ScoredProgram
	for _, p := range catalog {
		if excluded != nil && excluded(p) {
			continue
		}
		scored = append(scored, ScoredProgram{Program: p, Score: ScoreProgram(p, profile)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// FeaturedFallback returns up to `limit` featured catalog programs, unscored.
// Used to bootstrap recommendations before any profile signal exists.
func FeaturedFallback(catalog []domain.Program, limit int) []ScoredProgram {
	var featured []ScoredProgram
	for _, p := range catalog {
		if !p.IsFeatured {
			continue
		}
		featured = append(featured, ScoredProgram{Program: p})
		if len(featured) == limit {
			break
		}
	}
	return featured
}
