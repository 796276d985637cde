package evaluation

const (
	StatusDraft      = "draft"
	StatusInProgress = "in_progress"
	StatusFinalized  = "finalized"

	SheetScoreboard      = "scoreboard"
	SheetQuizGrades      = "quiz_grades"
	SheetBehavioral      = "behavioral"
	SheetTechnical       = "technical"
	SheetFeedbackTrainer = "feedback_trainer"
	SheetFeedbackPeer    = "feedback_peer"
	SheetFeedbackSelf    = "feedback_self"

	SourceManual       = "manual"
	SourceAutoQuiz     = "auto_quiz"
	SourceAutoActivity = "auto_activity"

	// CategoryActivityMeta marks the one scoreboard row per activity that
	// carries its label, remarks and status instead of a rubric score.
	CategoryActivityMeta = "__activity_meta"

	// ScoreboardKeySeparator joins activity and rubric keys in the
	// persisted criterion_key of scoreboard rubric rows.
	ScoreboardKeySeparator = "::"

	DefaultMaxScore = 5.0

	notSubmittedMarker = "did not submit"
	notSubmittedPrefix = "Did not submit"
)

var Statuses = []string{StatusDraft, StatusInProgress, StatusFinalized}

var Sources = []string{SourceManual, SourceAutoQuiz, SourceAutoActivity}

var Sheets = []string{
	SheetScoreboard,
	SheetQuizGrades,
	SheetBehavioral,
	SheetTechnical,
	SheetFeedbackTrainer,
	SheetFeedbackPeer,
	SheetFeedbackSelf,
}

func ValidStatus(status string) bool {
	return contains(Statuses, status)
}

func ValidSource(source string) bool {
	return contains(Sources, source)
}

func ValidSheet(sheet string) bool {
	return contains(Sheets, sheet)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
