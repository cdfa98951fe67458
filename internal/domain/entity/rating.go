package entity

// ReviewAverage returns the arithmetic mean of review scores, 0 when the
// list is empty. Pure and order-independent; safe to call at any time.
func ReviewAverage(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for i := range reviews {
		sum += reviews[i].Rating
	}
	return float64(sum) / float64(len(reviews))
}

// RatingAverage is ReviewAverage for bare rating lists.
func RatingAverage(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for i := range ratings {
		sum += ratings[i].Rating
	}
	return float64(sum) / float64(len(ratings))
}

// RecalculateRatings recomputes every derived average on the aggregate:
// the profile's own review average plus each achievement's and project's.
// Only in-memory fields are written; the caller persists the aggregate.
func (u *User) RecalculateRatings() {
	u.AverageRating = ReviewAverage(u.Reviews)
	for i := range u.Achievements {
		u.Achievements[i].AverageRating = RatingAverage(u.Achievements[i].Ratings)
	}
	for i := range u.Projects {
		u.Projects[i].AverageRating = ReviewAverage(u.Projects[i].Reviews)
	}
}
