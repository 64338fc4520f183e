package engine

import (
	"fmt"
	"time"

	"peakform/training-engine/internal/domain"
)

// Weight added per program week, by difficulty, in lbs.
var weightIncrements = map[domain.Difficulty]float64{
	domain.DifficultyBeginner:     1.0,
	domain.DifficultyIntermediate: 1.5,
	domain.DifficultyAdvanced:     2.0,
	domain.DifficultyElite:        2.5,
}

const (
	baseDistanceMiles    = 2.0
	baseDuration         = 30 * time.Minute
	distanceWeeklyRamp   = 0.10
	durationWeeklyRamp   = 0.05
	defaultWorkoutsWeek  = 3
	advancedWorkoutsWeek = 4
)

// DefaultCustomization returns the customization applied when the user gives
// no preferences: three workouts a week (four for advanced and elite
// programs), Sunday rest, neutral intensity.
func DefaultCustomization(difficulty domain.Difficulty) domain.Customization {
	perWeek := defaultWorkoutsWeek
	if difficulty.AtLeast(domain.DifficultyAdvanced) {
		perWeek = advancedWorkoutsWeek
	}
	return domain.Customization{
		WorkoutsPerWeek:   perWeek,
		RestDays:          []time.Weekday{time.Sunday},
		IntensityModifier: 1.0,
	}
}

// NormalizeCustomization fills zero values of a user-supplied customization
// with the defaults for the program's difficulty.
func NormalizeCustomization(c domain.Customization, difficulty domain.Difficulty) domain.Customization {
	def := DefaultCustomization(difficulty)
	if c.WorkoutsPerWeek <= 0 {
		c.WorkoutsPerWeek = def.WorkoutsPerWeek
	}
	if len(c.RestDays) == 0 {
		c.RestDays = def.RestDays
	}
	if c.IntensityModifier <= 0 {
		c.IntensityModifier = def.IntensityModifier
	}
	return c
}

// BuildWeeklySchedule derives the workout/rest-day split: the first N calendar
// weekdays (Sunday-first order) not in the rest-day set.
func BuildWeeklySchedule(c domain.Customization) domain.WeeklySchedule {
	rest := make(map[time.Weekday]bool, len(c.RestDays))
	for _, d := range c.RestDays {
		rest[d] = true
	}

	schedule := domain.WeeklySchedule{RestDays: append([]time.Weekday(nil), c.RestDays...)}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if len(schedule.WorkoutDays) == c.WorkoutsPerWeek {
			break
		}
		if rest[d] {
			continue
		}
		schedule.WorkoutDays = append(schedule.WorkoutDays, d)
	}
	return schedule
}

// WorkoutTypeFor returns the planned workout type for a (week, workoutNumber)
// slot. The opening two weeks are foundation work, the final two weeks are
// test weeks, everything between alternates endurance and strength.
func WorkoutTypeFor(week, workoutNumber, durationWeeks int) domain.WorkoutType {
	switch {
	case week <= 2:
		return domain.WorkoutFoundation
	case week >= durationWeeks-1:
		return domain.WorkoutTest
	case workoutNumber%2 == 0:
		return domain.WorkoutStrength
	default:
		return domain.WorkoutEndurance
	}
}

// TargetWeight is the carried weight for a given program week: starting
// weight plus a difficulty-specific increment per elapsed week.
func TargetWeight(startingWeight float64, difficulty domain.Difficulty, week int) float64 {
	return startingWeight + weightIncrements[difficulty]*float64(week-1)
}

// TargetDistance scales the two-mile base by 10% per elapsed week.
func TargetDistance(week int) float64 {
	return baseDistanceMiles * (1 + distanceWeeklyRamp*float64(week-1))
}

// TargetDuration scales the 30-minute base by 5% per elapsed week.
func TargetDuration(week int) time.Duration {
	return time.Duration(float64(baseDuration) * (1 + durationWeeklyRamp*float64(week-1)))
}

// startOfWeek truncates t to midnight of its week's Sunday, in t's location.
func startOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// GenerateWindow produces the rolling forward window of upcoming workouts for
// a session. Pure function of its inputs: identical inputs yield an identical
// schedule, and it consults no state beyond its arguments. Regeneration after
// any session event replaces the session's entire upcoming set.
func GenerateWindow(sessionID string, enr domain.Enrollment, prog domain.Program, c domain.Customization, now time.Time, weeks int) []domain.UpcomingWorkout {
	schedule := BuildWeeklySchedule(c)
	anchor := startOfWeek(now)

	var window []domain.UpcomingWorkout
	for offset := 0; offset < weeks; offset++ {
		week := enr.CurrentWeek + offset
		if week > prog.DurationWeeks {
			break
		}
		for i, weekday := range schedule.WorkoutDays {
			workoutNumber := i + 1
			workoutType := WorkoutTypeFor(week, workoutNumber, prog.DurationWeeks)
			window = append(window, domain.UpcomingWorkout{
				SessionID:      sessionID,
				WeekNumber:     week,
				WorkoutNumber:  workoutNumber,
				ScheduledDate:  anchor.AddDate(0, 0, offset*7+int(weekday)),
				Type:           workoutType,
				TargetWeight:   TargetWeight(enr.StartingWeight, prog.Difficulty, week) * c.IntensityModifier,
				TargetDistance: TargetDistance(week),
				TargetDuration: TargetDuration(week),
				Instructions:   instructionsFor(workoutType, week),
			})
		}
	}
	return window
}

// NextWorkoutDay returns the first scheduled workout day strictly after the
// given date.
func NextWorkoutDay(schedule domain.WeeklySchedule, after time.Time) time.Time {
	day := time.Date(after.Year(), after.Month(), after.Day(), 0, 0, 0, 0, after.Location())
	for i := 1; i <= 7; i++ {
		candidate := day.AddDate(0, 0, i)
		for _, wd := range schedule.WorkoutDays {
			if candidate.Weekday() == wd {
				return candidate
			}
		}
	}
	// Empty workout-day set; push a week out rather than loop forever.
	return day.AddDate(0, 0, 7)
}

func instructionsFor(t domain.WorkoutType, week int) string {
	switch t {
	case domain.WorkoutFoundation:
		return fmt.Sprintf("Week %d foundation: steady pace, focus on form under load.", week)
	case domain.WorkoutEndurance:
		return fmt.Sprintf("Week %d endurance: hold a conversational pace for the full distance.", week)
	case domain.WorkoutStrength:
		return fmt.Sprintf("Week %d strength: shorter distance, heavier carry, controlled effort.", week)
	case domain.WorkoutTest:
		return fmt.Sprintf("Week %d test: best sustainable effort over the target distance.", week)
	default:
		return ""
	}
}
