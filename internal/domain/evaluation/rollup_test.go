package evaluation

import (
	"fmt"
	"testing"
)

func quizRow(key string, raw, total float64) Score {
	return Score{Sheet: SheetQuizGrades, Category: SummativeCriterion, CriterionKey: key, Score: floatPtr(raw), MaxScore: floatPtr(total), Source: SourceAutoQuiz}
}

func TestProfilesSumToHundred(t *testing.T) {
	for _, profile := range Profiles {
		var total float64
		for _, cat := range Categories {
			total += profile.CategoryWeight(cat.Letter)
		}
		if total != 100 {
			t.Fatalf("profile %s: expected weights to sum to 100, got %v", profile, total)
		}
	}
	if ProfileBootcamp.CategoryWeight("D") != 10 || ProfilePerformance.CategoryWeight("D") != 15 {
		t.Fatalf("expected work management weight to differ between profiles")
	}
	if WeightProfile("unknown").Valid() || WeightProfile("unknown").CategoryWeight("A") != 0 {
		t.Fatalf("expected unknown profile to carry no weights")
	}
}

func TestCriterionWeightsSumToHundredPerCategory(t *testing.T) {
	for _, cat := range Categories {
		var total float64
		for _, c := range CriteriaIn(cat.Letter) {
			total += c.Weight
		}
		if total != 100 {
			t.Fatalf("category %s: expected criterion weights to sum to 100, got %v", cat.Letter, total)
		}
	}
}

func TestEmptyEvaluationScoresZero(t *testing.T) {
	summary := Summarize(nil)
	if summary.BootcampPercent != 0 || summary.PerformancePercent != 0 || summary.OverallScore != 0 {
		t.Fatalf("expected zero percentages, got %+v", summary)
	}
	if summary.Rating != RatingPoor {
		t.Fatalf("expected %s, got %s", RatingPoor, summary.Rating)
	}
	if len(summary.Categories) != len(Categories) {
		t.Fatalf("expected %d categories, got %d", len(Categories), len(summary.Categories))
	}
	if summary.QuizAverage != nil {
		t.Fatalf("expected no quiz average, got %v", *summary.QuizAverage)
	}
}

func TestFullyGradedEvaluationIsOutstanding(t *testing.T) {
	rows, err := GradeRows("act-1", ActivityGrade{Label: "Lab", Scores: fullGrade(func(c Criterion) float64 { return c.MaxScore })})
	if err != nil {
		t.Fatalf("grade rows: %v", err)
	}
	rows = append(rows, quizRow("quiz-1", 10, 10))

	summary := Summarize(rows)
	for _, cat := range summary.Categories {
		if !approx(cat.Score, 5) {
			t.Fatalf("category %s: expected 5, got %v", cat.Letter, cat.Score)
		}
	}
	if !approx(summary.BootcampPercent, 100) || !approx(summary.PerformancePercent, 100) {
		t.Fatalf("expected 100%% on both profiles, got %v and %v", summary.BootcampPercent, summary.PerformancePercent)
	}
	if summary.Rating != RatingOutstanding {
		t.Fatalf("expected %s, got %s", RatingOutstanding, summary.Rating)
	}
}

func TestFullMarksAreOutstandingOnAnyStoredScale(t *testing.T) {
	scaled := func(activity string, maxFor func(Criterion) float64) []Score {
		rows, err := GradeRows(activity, ActivityGrade{Scores: fullGrade(func(c Criterion) float64 { return c.MaxScore })})
		if err != nil {
			t.Fatalf("grade rows: %v", err)
		}
		for i := range rows {
			c, ok := LookupCriterion(rows[i].Category)
			if !ok {
				continue
			}
			m := maxFor(c)
			rows[i].Score = floatPtr(m)
			rows[i].MaxScore = floatPtr(m)
		}
		return rows
	}

	cases := map[string][]Score{
		"legacy out of five": scaled("act-legacy", func(Criterion) float64 { return 5 }),
		"double canonical":   scaled("act-double", func(c Criterion) float64 { return c.MaxScore * 2 }),
	}
	cases["mixed"] = append(append([]Score{}, cases["legacy out of five"]...), cases["double canonical"]...)

	for name, rows := range cases {
		summary := Summarize(append(rows, quizRow("quiz-1", 10, 10)))
		for _, cat := range summary.Categories {
			if !approx(cat.Score, 5) {
				t.Fatalf("%s: category %s expected 5, got %v", name, cat.Letter, cat.Score)
			}
		}
		if summary.Rating != RatingOutstanding {
			t.Fatalf("%s: expected %s, got %s", name, RatingOutstanding, summary.Rating)
		}
	}
}

func TestSummativeCriterionUsesQuizAverage(t *testing.T) {
	e := NewEngine([]Score{quizRow("quiz-1", 8, 10)})
	got := e.CriterionScore(SummativeCriterion)
	if got == nil || !approx(*got, 4.5) {
		t.Fatalf("expected 4.5, got %v", got)
	}
	if !approx(e.CategoryScore("E"), 4.5) {
		t.Fatalf("expected learning category 4.5, got %v", e.CategoryScore("E"))
	}

	// Rubric rows for the summative criterion never feed its score.
	rows, _ := GradeRows("act-1", ActivityGrade{Scores: fullGrade(func(c Criterion) float64 { return 0 })})
	e = NewEngine(append(rows, quizRow("quiz-1", 8, 10)))
	if got := e.CriterionScore(SummativeCriterion); got == nil || !approx(*got, 4.5) {
		t.Fatalf("expected scoreboard rows to be ignored for the summative criterion, got %v", got)
	}
}

func TestQuizAverageSkipsUncomputableRows(t *testing.T) {
	e := NewEngine([]Score{
		quizRow("quiz-1", 10, 10),
		quizRow("quiz-2", 0, 10),
		{Sheet: SheetQuizGrades, CriterionKey: "quiz-3", Score: floatPtr(4)},
	})
	got := e.QuizAverageOnFive()
	if got == nil || !approx(*got, 2.5) {
		t.Fatalf("expected 2.5, got %v", got)
	}
}

func TestCriterionScoreAveragesActivities(t *testing.T) {
	e := NewEngine([]Score{
		{Sheet: SheetScoreboard, Category: "c1_technical_knowledge", CriterionKey: "act-1::c1_technical_knowledge", Score: floatPtr(40), MaxScore: floatPtr(40)},
		{Sheet: SheetScoreboard, CriterionKey: "act-2::c1_technical_knowledge", Score: floatPtr(20), MaxScore: floatPtr(40)},
		{Sheet: SheetScoreboard, Category: "c1_technical_knowledge", CriterionKey: "act-3"},
	})
	got := e.CriterionScore("c1_technical_knowledge")
	if got == nil || !approx(*got, 3.75) {
		t.Fatalf("expected 3.75, got %v", got)
	}
	if e.CriterionScore("c2_problem_solving") != nil {
		t.Fatalf("expected nil for a criterion without data")
	}
	// Only c1 has data so the category is its score alone.
	if !approx(e.CategoryScore("C"), 3.75) {
		t.Fatalf("expected category C 3.75, got %v", e.CategoryScore("C"))
	}
}

func TestRollupOutputsStayBounded(t *testing.T) {
	for i := 0; i < 40; i++ {
		var rows []Score
		for j, c := range Criteria {
			raw := float64((i*7+j*13)%90) - 10
			rows = append(rows, Score{
				Sheet:        SheetScoreboard,
				Category:     c.Key,
				CriterionKey: fmt.Sprintf("act-%d::%s", i%3, c.Key),
				Score:        floatPtr(raw),
				MaxScore:     floatPtr(c.MaxScore),
			})
		}
		rows = append(rows, quizRow("quiz", float64(i), 20))
		e := NewEngine(rows)
		for _, cat := range Categories {
			if v := e.CategoryScore(cat.Letter); v < 0 || v > 5 {
				t.Fatalf("case %d: category %s out of range: %v", i, cat.Letter, v)
			}
		}
		for _, profile := range Profiles {
			if v := e.Percent(profile); v < 0 || v > 100+1e-9 {
				t.Fatalf("case %d: %s percent out of range: %v", i, profile, v)
			}
		}
		if v := e.OverallScore(); v < 0 || v > 100+1e-9 {
			t.Fatalf("case %d: overall out of range: %v", i, v)
		}
	}
}

func TestAdjectivalRatingBoundaries(t *testing.T) {
	cases := map[float64]string{
		100:   RatingOutstanding,
		91:    RatingOutstanding,
		90.99: RatingSatisfactory,
		86:    RatingSatisfactory,
		85.99: RatingNeedsImprovement,
		71:    RatingNeedsImprovement,
		70.99: RatingUnsatisfactory,
		61:    RatingUnsatisfactory,
		60.99: RatingPoor,
		0:     RatingPoor,
	}
	for pct, want := range cases {
		if got := AdjectivalRating(pct); got != want {
			t.Fatalf("AdjectivalRating(%v): expected %s, got %s", pct, want, got)
		}
	}
}

func TestSummarizeReportsQuizGrades(t *testing.T) {
	summary := Summarize([]Score{quizRow("quiz-1", 8, 10), quizRow("quiz-2", 10, 10)})
	if len(summary.QuizGrades) != 2 {
		t.Fatalf("expected 2 quiz grades, got %d", len(summary.QuizGrades))
	}
	if summary.QuizAverage == nil || !approx(*summary.QuizAverage, 95) {
		t.Fatalf("expected quiz average 95, got %v", summary.QuizAverage)
	}
	e := summary.Categories[4]
	if e.Letter != "E" || !approx(e.Score, 4.75) {
		t.Fatalf("expected learning category 4.75, got %+v", e)
	}
}
