package evaluation

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ScoreboardKey identifies a scoreboard row: an activity, and for rubric
// rows the rubric criterion inside it. RubricKey is empty for meta rows.
type ScoreboardKey struct {
	ActivityID string
	RubricKey  string
}

func (k ScoreboardKey) String() string {
	if k.RubricKey == "" {
		return k.ActivityID
	}
	return k.ActivityID + ScoreboardKeySeparator + k.RubricKey
}

func (k ScoreboardKey) IsMeta() bool {
	return k.RubricKey == ""
}

// ParseScoreboardKey resolves the activity and rubric a scoreboard row
// belongs to. Legacy rows name the rubric in their category instead of the
// composite key.
func ParseScoreboardKey(criterionKey, category string) ScoreboardKey {
	if activity, rubric, ok := strings.Cut(criterionKey, ScoreboardKeySeparator); ok {
		return ScoreboardKey{ActivityID: activity, RubricKey: rubric}
	}
	if IsRubricKey(category) {
		return ScoreboardKey{ActivityID: criterionKey, RubricKey: category}
	}
	return ScoreboardKey{ActivityID: criterionKey}
}

type ActivityStatus string

const (
	ActivityGraded       ActivityStatus = "graded"
	ActivityNotSubmitted ActivityStatus = "not_submitted"
	ActivityUngraded     ActivityStatus = "ungraded"
)

func ValidActivityStatus(status string) bool {
	switch ActivityStatus(status) {
	case ActivityGraded, ActivityNotSubmitted, ActivityUngraded:
		return true
	}
	return false
}

type RubricSlot struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Score    *float64 `json:"score"`
	MaxScore float64  `json:"maxScore"`
}

type ScoreboardActivity struct {
	Key             string         `json:"key"`
	Label           string         `json:"label"`
	Remarks         string         `json:"remarks,omitempty"`
	Source          string         `json:"source"`
	Status          ActivityStatus `json:"status"`
	LegacyScore     *float64       `json:"legacyScore,omitempty"`
	LegacyMaxScore  *float64       `json:"legacyMaxScore,omitempty"`
	Criteria        []RubricSlot   `json:"criteria"`
	CriteriaGraded  int            `json:"criteriaGraded"`
	CriteriaAverage *float64       `json:"criteriaAverage"`

	explicitStatus ActivityStatus
}

// Complete reports whether every rubric criterion has a score.
func (a ScoreboardActivity) Complete() bool {
	return a.CriteriaGraded == len(Criteria)
}

func (a *ScoreboardActivity) slot(key string) *RubricSlot {
	for i := range a.Criteria {
		if a.Criteria[i].Key == key {
			return &a.Criteria[i]
		}
	}
	return nil
}

func newActivity(key string) *ScoreboardActivity {
	a := &ScoreboardActivity{
		Key:      key,
		Label:    key,
		Source:   SourceManual,
		Criteria: make([]RubricSlot, len(Criteria)),
	}
	for i, c := range Criteria {
		a.Criteria[i] = RubricSlot{Key: c.Key, Label: c.Label, MaxScore: c.MaxScore}
	}
	return a
}

// AggregateScoreboard groups flat scoreboard rows into per-activity records
// sorted by label. Rows from other sheets are ignored.
func AggregateScoreboard(entries []Score) []ScoreboardActivity {
	byKey := map[string]*ScoreboardActivity{}
	var order []string

	for _, entry := range entries {
		if entry.Sheet != SheetScoreboard || entry.CriterionKey == "" {
			continue
		}
		ref := ParseScoreboardKey(entry.CriterionKey, entry.Category)
		activity, ok := byKey[ref.ActivityID]
		if !ok {
			activity = newActivity(ref.ActivityID)
			byKey[ref.ActivityID] = activity
			order = append(order, ref.ActivityID)
		}

		if !ref.IsMeta() {
			slot := activity.slot(ref.RubricKey)
			if slot == nil {
				continue
			}
			criterion, _ := LookupCriterion(ref.RubricKey)
			storedMax := criterion.MaxScore
			if entry.MaxScore != nil && *entry.MaxScore > 0 {
				storedMax = *entry.MaxScore
			}
			slot.Score = ConvertBetweenScales(entry.Score, storedMax, criterion.MaxScore)
			if storedMax > slot.MaxScore {
				slot.MaxScore = storedMax
			}
			continue
		}

		if entry.CriterionLabel != "" {
			activity.Label = entry.CriterionLabel
		}
		if entry.Remarks != "" {
			activity.Remarks = entry.Remarks
		}
		if activity.Source == SourceManual && entry.Source != "" && entry.Source != SourceManual {
			activity.Source = entry.Source
		}
		if entry.Score != nil {
			activity.LegacyScore = copyFloat(entry.Score)
			activity.LegacyMaxScore = copyFloat(entry.MaxScore)
		}
		if ValidActivityStatus(entry.Status) {
			activity.explicitStatus = ActivityStatus(entry.Status)
		}
	}

	out := make([]ScoreboardActivity, 0, len(order))
	for _, key := range order {
		activity := byKey[key]
		var sum float64
		for _, slot := range activity.Criteria {
			if slot.Score == nil {
				continue
			}
			activity.CriteriaGraded++
			sum += maxOrZero(NormalizeToFive(slot.Score, slot.MaxScore))
		}
		if activity.CriteriaGraded > 0 {
			activity.CriteriaAverage = floatPtr(sum / float64(activity.CriteriaGraded))
		}
		activity.Status = resolveActivityStatus(*activity)
		out = append(out, *activity)
	}

	sort.SliceStable(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Label), strings.ToLower(out[j].Label)
		if li != lj {
			return li < lj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func resolveActivityStatus(a ScoreboardActivity) ActivityStatus {
	if a.explicitStatus != "" {
		return a.explicitStatus
	}
	if strings.Contains(strings.ToLower(a.Remarks), notSubmittedMarker) {
		return ActivityNotSubmitted
	}
	if a.Complete() {
		return ActivityGraded
	}
	return ActivityUngraded
}

// GradingError names the first rubric criterion that blocked a grade.
type GradingError struct {
	Criterion string
	Reason    string
}

func (e *GradingError) Error() string {
	return fmt.Sprintf("criterion %s: %s", e.Criterion, e.Reason)
}

// ActivityGrade is a complete rubric submission for one activity.
type ActivityGrade struct {
	Label   string
	Remarks string
	Scores  map[string]float64
}

// ValidateGrade checks that every rubric criterion has a non-negative whole
// number within its max, in catalogue order.
func ValidateGrade(scores map[string]float64) error {
	for _, c := range Criteria {
		v, ok := scores[c.Key]
		if !ok {
			return &GradingError{Criterion: c.Key, Reason: "score is required"}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return &GradingError{Criterion: c.Key, Reason: "score must be a whole number"}
		}
		if v < 0 {
			return &GradingError{Criterion: c.Key, Reason: "score must not be negative"}
		}
		if v > c.MaxScore {
			return &GradingError{Criterion: c.Key, Reason: fmt.Sprintf("score must not exceed %g", c.MaxScore)}
		}
	}
	return nil
}

// GradeRows turns a validated grade into the meta row plus one composite row
// per rubric criterion.
func GradeRows(activityID string, grade ActivityGrade) ([]Score, error) {
	if err := ValidateGrade(grade.Scores); err != nil {
		return nil, err
	}
	rows := make([]Score, 0, len(Criteria)+1)
	rows = append(rows, Score{
		Sheet:          SheetScoreboard,
		Category:       CategoryActivityMeta,
		CriterionKey:   activityID,
		CriterionLabel: grade.Label,
		Remarks:        grade.Remarks,
		Source:         SourceManual,
		Status:         string(ActivityGraded),
	})
	for _, c := range Criteria {
		rows = append(rows, Score{
			Sheet:          SheetScoreboard,
			Category:       c.Key,
			CriterionKey:   ScoreboardKey{ActivityID: activityID, RubricKey: c.Key}.String(),
			CriterionLabel: c.Label,
			Score:          floatPtr(grade.Scores[c.Key]),
			MaxScore:       floatPtr(c.MaxScore),
			Source:         SourceManual,
		})
	}
	return rows, nil
}

// NotSubmittedRows zeroes every rubric criterion of an activity and marks it
// as not submitted.
func NotSubmittedRows(activityID, label, remarks string) []Score {
	zeros := make(map[string]float64, len(Criteria))
	for _, c := range Criteria {
		zeros[c.Key] = 0
	}
	text := notSubmittedPrefix
	if trimmed := strings.TrimSpace(remarks); trimmed != "" {
		text = notSubmittedPrefix + " - " + trimmed
	}
	rows, _ := GradeRows(activityID, ActivityGrade{Label: label, Remarks: text, Scores: zeros})
	rows[0].Status = string(ActivityNotSubmitted)
	return rows
}

// ActivityKeys lists every score key owned by an activity: its meta row,
// its rubric rows and its quiz_grades row.
func ActivityKeys(entries []Score, activityID string) []ScoreKey {
	var keys []ScoreKey
	for _, entry := range entries {
		switch entry.Sheet {
		case SheetScoreboard:
			if ParseScoreboardKey(entry.CriterionKey, entry.Category).ActivityID == activityID {
				keys = append(keys, entry.Key())
			}
		case SheetQuizGrades:
			if entry.CriterionKey == activityID {
				keys = append(keys, entry.Key())
			}
		}
	}
	return keys
}
