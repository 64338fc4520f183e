package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty is the ordered difficulty ladder for catalog programs.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyElite        Difficulty = "elite"
)

// LevelIndex returns the ordinal position of the difficulty
// (beginner=0 .. elite=3). Unknown values map to beginner.
func (d Difficulty) LevelIndex() int {
	switch d {
	case DifficultyIntermediate:
		return 1
	case DifficultyAdvanced:
		return 2
	case DifficultyElite:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether d is the same level as other or above it.
func (d Difficulty) AtLeast(other Difficulty) bool {
	return d.LevelIndex() >= other.LevelIndex()
}

// Category groups programs by theme.
type Category string

const (
	CategoryMilitary   Category = "military"
	CategoryAdventure  Category = "adventure"
	CategoryFitness    Category = "fitness"
	CategoryHistorical Category = "historical"
)

// Program is an immutable multi-week training plan definition from the catalog.
// The engine only ever reads these.
type Program struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Difficulty    Difficulty         `bson:"difficulty" json:"difficulty"`
	Category      Category           `bson:"category" json:"category"`
	DurationWeeks int                `bson:"durationWeeks" json:"durationWeeks"` // >= 1
	IsFeatured    bool               `bson:"isFeatured" json:"isFeatured"`
	MediaKey      string             `bson:"mediaKey,omitempty" json:"-"` // object key of the briefing asset in S3
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
