package services

import (
	"math"

	"github.com/brainbarter/brain_barter/models"
)

const (
	MinRating = 1
	MaxRating = 5
)

// AverageRating is the mean of all review ratings rounded to one decimal
// place, or 0 when there are no reviews.
func AverageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	avg := float64(total) / float64(len(reviews))
	return math.Round(avg*10) / 10
}

func validRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
