package evaluation

// Engine computes rollups over one snapshot of an evaluation's scores. It is
// pure: build a new one whenever the underlying scores change.
type Engine struct {
	scoreboard []Score
	quizzes    []Score
}

func NewEngine(scores []Score) *Engine {
	e := &Engine{}
	for _, s := range scores {
		switch s.Sheet {
		case SheetScoreboard:
			e.scoreboard = append(e.scoreboard, s)
		case SheetQuizGrades:
			e.quizzes = append(e.quizzes, s)
		}
	}
	return e
}

func EngineFor(store *ScoreStore) *Engine {
	return NewEngine(store.Pending())
}

// QuizAverageOnFive is the mean quiz equivalent mapped onto 0..5, or nil
// when no quiz has a computable equivalent.
func (e *Engine) QuizAverageOnFive() *float64 {
	var sum float64
	var n int
	for _, q := range e.quizzes {
		eq := QuizEquivalent(q.Score, q.MaxScore)
		if eq == nil {
			continue
		}
		sum += *eq
		n++
	}
	if n == 0 {
		return nil
	}
	return floatPtr(clamp(sum/float64(n)/100*5, 0, 5))
}

// CriterionScore resolves one criterion on the 0..5 scale. Every scoreboard
// row tagged with the criterion contributes equally; nil means no data.
func (e *Engine) CriterionScore(key string) *float64 {
	if key == SummativeCriterion {
		return e.QuizAverageOnFive()
	}
	var sum float64
	var n int
	for _, entry := range e.scoreboard {
		if !entryMatches(entry, key) {
			continue
		}
		normalized := NormalizeToFive(entry.Score, maxOrZero(entry.MaxScore))
		if normalized == nil {
			continue
		}
		sum += *normalized
		n++
	}
	if n == 0 {
		return nil
	}
	return floatPtr(sum / float64(n))
}

func entryMatches(entry Score, key string) bool {
	if entry.Category == key || entry.CriterionKey == key {
		return true
	}
	return ParseScoreboardKey(entry.CriterionKey, entry.Category).RubricKey == key
}

// CategoryScore is the criterion-weighted mean of the category's resolved
// criteria on 0..5. A category without any data scores 0.
func (e *Engine) CategoryScore(letter string) float64 {
	var weighted, totalWeight float64
	for _, c := range CriteriaIn(letter) {
		score := e.CriterionScore(c.Key)
		if score == nil {
			continue
		}
		weighted += *score * c.Weight
		totalWeight += c.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return clamp(weighted/totalWeight, 0, 5)
}

// Percent rolls category scores up into a 0..100 percentage using the
// profile's category weights.
func (e *Engine) Percent(profile WeightProfile) float64 {
	var total float64
	for _, cat := range Categories {
		total += e.CategoryScore(cat.Letter) / 5 * profile.CategoryWeight(cat.Letter)
	}
	return total
}

func (e *Engine) BootcampPercent() float64 {
	return e.Percent(ProfileBootcamp)
}

func (e *Engine) PerformancePercent() float64 {
	return e.Percent(ProfilePerformance)
}

func (e *Engine) OverallScore() float64 {
	return (e.BootcampPercent() + e.PerformancePercent()) / 2
}

const (
	RatingOutstanding      = "OUTSTANDING"
	RatingSatisfactory     = "SATISFACTORY"
	RatingNeedsImprovement = "NEEDS IMPROVEMENT"
	RatingUnsatisfactory   = "UNSATISFACTORY"
	RatingPoor             = "POOR"
)

// AdjectivalRating maps an overall percentage to its rating label.
func AdjectivalRating(overallPercent float64) string {
	switch {
	case overallPercent >= 91:
		return RatingOutstanding
	case overallPercent >= 86:
		return RatingSatisfactory
	case overallPercent >= 71:
		return RatingNeedsImprovement
	case overallPercent >= 61:
		return RatingUnsatisfactory
	default:
		return RatingPoor
	}
}

type CriterionResult struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Category string   `json:"category"`
	Score    *float64 `json:"score"`
}

type CategoryResult struct {
	Letter            string            `json:"letter"`
	Name              string            `json:"name"`
	Score             float64           `json:"score"`
	BootcampWeight    float64           `json:"bootcampWeight"`
	PerformanceWeight float64           `json:"performanceWeight"`
	Criteria          []CriterionResult `json:"criteria"`
}

type Summary struct {
	Categories         []CategoryResult     `json:"categories"`
	BootcampPercent    float64              `json:"bootcampPercent"`
	PerformancePercent float64              `json:"performancePercent"`
	OverallScore       float64              `json:"overallScore"`
	Rating             string               `json:"rating"`
	Activities         []ScoreboardActivity `json:"activities"`
	QuizGrades         []QuizGrade          `json:"quizGrades"`
	QuizAverage        *float64             `json:"quizAverage"`
}

// Summarize computes every derived view of the given scores.
func Summarize(scores []Score) Summary {
	e := NewEngine(scores)
	summary := Summary{
		Categories:         make([]CategoryResult, 0, len(Categories)),
		BootcampPercent:    e.BootcampPercent(),
		PerformancePercent: e.PerformancePercent(),
		Activities:         AggregateScoreboard(e.scoreboard),
		QuizGrades:         make([]QuizGrade, 0, len(e.quizzes)),
	}
	summary.OverallScore = (summary.BootcampPercent + summary.PerformancePercent) / 2
	summary.Rating = AdjectivalRating(summary.OverallScore)

	for _, cat := range Categories {
		result := CategoryResult{
			Letter:            cat.Letter,
			Name:              cat.Name,
			Score:             e.CategoryScore(cat.Letter),
			BootcampWeight:    ProfileBootcamp.CategoryWeight(cat.Letter),
			PerformanceWeight: ProfilePerformance.CategoryWeight(cat.Letter),
		}
		for _, c := range CriteriaIn(cat.Letter) {
			result.Criteria = append(result.Criteria, CriterionResult{
				Key:      c.Key,
				Label:    c.Label,
				Category: c.Category,
				Score:    e.CriterionScore(c.Key),
			})
		}
		summary.Categories = append(summary.Categories, result)
	}

	var eqSum float64
	var eqCount int
	for _, q := range e.quizzes {
		grade := quizGradeFrom(q)
		if grade.Equivalent != nil {
			eqSum += *grade.Equivalent
			eqCount++
		}
		summary.QuizGrades = append(summary.QuizGrades, grade)
	}
	if eqCount > 0 {
		summary.QuizAverage = floatPtr(eqSum / float64(eqCount))
	}
	return summary
}
