package evaluation

import "time"

type Evaluation struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	LearningPathID string         `json:"learningPathId,omitempty"`
	EvaluatorID    string         `json:"evaluatorId,omitempty"`
	Status         string         `json:"status"`
	TraineeInfo    map[string]any `json:"traineeInfo"`
	PeriodStart    *time.Time     `json:"periodStart,omitempty"`
	PeriodEnd      *time.Time     `json:"periodEnd,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Score is one persisted or pending row of an evaluation's score sheets.
// Zero-valued optional fields mean "not supplied" when merged.
type Score struct {
	Sheet          string    `json:"sheet"`
	Category       string    `json:"category,omitempty"`
	CriterionKey   string    `json:"criterionKey"`
	CriterionLabel string    `json:"criterionLabel,omitempty"`
	Score          *float64  `json:"score"`
	MaxScore       *float64  `json:"maxScore,omitempty"`
	Weight         *float64  `json:"weight,omitempty"`
	Remarks        string    `json:"remarks,omitempty"`
	Source         string    `json:"source,omitempty"`
	SourceRefID    string    `json:"sourceRefId,omitempty"`
	Status         string    `json:"status,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitzero"`
}

func (s Score) Key() ScoreKey {
	return ScoreKey{Sheet: s.Sheet, CriterionKey: s.CriterionKey}
}

type ScoreKey struct {
	Sheet        string
	CriterionKey string
}

func (k ScoreKey) String() string {
	return k.Sheet + ":" + k.CriterionKey
}

type ListFilter struct {
	UserID string
	Status string
	Limit  int
	Offset int
}

type CreateInput struct {
	UserID         string
	LearningPathID string
	EvaluatorID    string
	TraineeInfo    map[string]any
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
}

// Patch carries a partial update; nil fields are left untouched.
type Patch struct {
	Status         *string
	TraineeInfo    map[string]any
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	LearningPathID *string
	EvaluatorID    *string
	UserID         *string
}

func (p Patch) Empty() bool {
	return p.Status == nil && p.TraineeInfo == nil && p.PeriodStart == nil && p.PeriodEnd == nil &&
		p.LearningPathID == nil && p.EvaluatorID == nil && p.UserID == nil
}

type Detail struct {
	Evaluation Evaluation `json:"evaluation"`
	Scores     []Score    `json:"scores"`
	Summary    Summary    `json:"summary"`
}

type QuizAttempt struct {
	ID          string
	QuizID      string
	QuizTitle   string
	Score       float64
	TotalItems  float64
	SubmittedAt time.Time
}

type ActivitySubmission struct {
	ID            string
	ActivityID    string
	ActivityTitle string
	Status        string
	Score         *float64
	MaxScore      *float64
	SubmittedAt   time.Time
}

type AutoPopulateResult struct {
	Count  int     `json:"count"`
	Scores []Score `json:"scores"`
}

type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ReportRow struct {
	EvaluationID       string  `json:"evaluationId"`
	UserID             string  `json:"userId"`
	TraineeName        string  `json:"traineeName"`
	Status             string  `json:"status"`
	BootcampPercent    float64 `json:"bootcampPercent"`
	PerformancePercent float64 `json:"performancePercent"`
	OverallScore       float64 `json:"overallScore"`
	Rating             string  `json:"rating"`
	ActivitiesComplete int     `json:"activitiesComplete"`
	ActivitiesTotal    int     `json:"activitiesTotal"`
}
