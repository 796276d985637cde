package evaluation

import "math"

var quizRatingLabels = []string{
	"Failed",
	"Not yet capable",
	"Some capability",
	"Needs improvement",
	"Capable",
	"Expert",
}

// QuizEquivalent maps a raw quiz score to the 50..100 equivalent scale. Any
// positive raw score lands above 50; a non-positive one is 0.
func QuizEquivalent(rawScore, totalItems *float64) *float64 {
	if rawScore == nil || totalItems == nil || math.IsNaN(*rawScore) || math.IsNaN(*totalItems) {
		return nil
	}
	if *totalItems <= 0 {
		return nil
	}
	if *rawScore <= 0 {
		return floatPtr(0)
	}
	return floatPtr((*rawScore / *totalItems)*50 + 50)
}

// QuizRating buckets an equivalent into the discrete 0..5 rating.
func QuizRating(equivalent float64) int {
	switch {
	case equivalent <= 0:
		return 0
	case equivalent <= 60:
		return 1
	case equivalent <= 70:
		return 2
	case equivalent <= 85:
		return 3
	case equivalent <= 96:
		return 4
	default:
		return 5
	}
}

func QuizRatingLabel(rating int) string {
	if rating < 0 || rating >= len(quizRatingLabels) {
		return ""
	}
	return quizRatingLabels[rating]
}

// QuizGrade is the derived view of one quiz_grades row.
type QuizGrade struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	RawScore    *float64 `json:"rawScore"`
	TotalItems  *float64 `json:"totalItems"`
	Equivalent  *float64 `json:"equivalent"`
	Rating      *int     `json:"rating"`
	RatingLabel string   `json:"ratingLabel,omitempty"`
	Source      string   `json:"source"`
}

func quizGradeFrom(s Score) QuizGrade {
	grade := QuizGrade{
		Key:        s.CriterionKey,
		Label:      s.CriterionLabel,
		RawScore:   s.Score,
		TotalItems: s.MaxScore,
		Source:     s.Source,
	}
	if grade.Label == "" {
		grade.Label = s.CriterionKey
	}
	grade.Equivalent = QuizEquivalent(s.Score, s.MaxScore)
	if grade.Equivalent != nil {
		rating := QuizRating(*grade.Equivalent)
		grade.Rating = &rating
		grade.RatingLabel = QuizRatingLabel(rating)
	}
	return grade
}
