package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	JobAutoPopulate      = "evaluation_auto_populate"
	JobAutoPopulateSweep = "evaluation_auto_populate_sweep"
)

// JobRunner records a synchronous unit of work, see platform/jobs.
type JobRunner interface {
	RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error)
}

type Service struct {
	store StoreAPI
	jobs  JobRunner
	now   func() time.Time
}

func NewService(store StoreAPI, jobs JobRunner) *Service {
	return &Service{store: store, jobs: jobs, now: time.Now}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Evaluation, int, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	total, err := s.store.CountEvaluations(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.store.ListEvaluations(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []Evaluation{}
	}
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	e, err := s.store.GetEvaluation(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	scores, err := s.store.ListScores(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("list scores: %w", err)
	}
	if scores == nil {
		scores = []Score{}
	}
	return Detail{Evaluation: e, Scores: scores, Summary: Summarize(scores)}, nil
}

func (s *Service) Summary(ctx context.Context, id string) (Summary, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return detail.Summary, nil
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Evaluation, error) {
	if input.PeriodStart != nil {
		d := dateOnly(*input.PeriodStart)
		input.PeriodStart = &d
	}
	if input.PeriodEnd != nil {
		d := dateOnly(*input.PeriodEnd)
		input.PeriodEnd = &d
	}
	if input.PeriodStart != nil && input.PeriodEnd != nil && input.PeriodEnd.Before(*input.PeriodStart) {
		return Evaluation{}, ErrInvalidPeriod
	}
	return s.store.CreateEvaluation(ctx, input)
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (Evaluation, error) {
	if patch.Empty() {
		return Evaluation{}, ErrNothingToUpdate
	}
	if patch.Status != nil && !ValidStatus(*patch.Status) {
		return Evaluation{}, ErrInvalidStatus
	}
	current, err := s.store.GetEvaluation(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	if patch.PeriodStart != nil {
		d := dateOnly(*patch.PeriodStart)
		patch.PeriodStart = &d
	}
	if patch.PeriodEnd != nil {
		d := dateOnly(*patch.PeriodEnd)
		patch.PeriodEnd = &d
	}
	start, end := current.PeriodStart, current.PeriodEnd
	if patch.PeriodStart != nil {
		start = patch.PeriodStart
	}
	if patch.PeriodEnd != nil {
		end = patch.PeriodEnd
	}
	if start != nil && end != nil && end.Before(*start) {
		return Evaluation{}, ErrInvalidPeriod
	}
	return s.store.UpdateEvaluation(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteEvaluation(ctx, id)
}

// editable loads an evaluation and its scores for mutation. Finalized
// evaluations are read-only.
func (s *Service) editable(ctx context.Context, id string) (Evaluation, *ScoreStore, error) {
	e, err := s.store.GetEvaluation(ctx, id)
	if err != nil {
		return Evaluation{}, nil, err
	}
	if e.Status == StatusFinalized {
		return Evaluation{}, nil, ErrFinalized
	}
	scores, err := s.store.ListScores(ctx, id)
	if err != nil {
		return Evaluation{}, nil, fmt.Errorf("list scores: %w", err)
	}
	return e, NewScoreStore(scores), nil
}

// SaveScores merges the pending records into the persisted ones, writes the
// touched rows and returns the evaluation as reloaded from storage.
func (s *Service) SaveScores(ctx context.Context, id string, pending []Score) (Detail, error) {
	for _, sc := range pending {
		if err := checkScore(sc); err != nil {
			return Detail{}, err
		}
	}
	e, store, err := s.editable(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if err := s.persist(ctx, id, store, pending); err != nil {
		return Detail{}, err
	}
	if e.Status == StatusDraft && len(pending) > 0 {
		status := StatusInProgress
		if _, err := s.store.UpdateEvaluation(ctx, id, Patch{Status: &status}); err != nil {
			return Detail{}, fmt.Errorf("mark in progress: %w", err)
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) persist(ctx context.Context, id string, store *ScoreStore, pending []Score) error {
	if len(pending) == 0 {
		return nil
	}
	store.UpsertMany(pending)
	touched := make([]Score, 0, len(pending))
	seen := map[ScoreKey]bool{}
	for _, sc := range pending {
		key := sc.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		merged, _ := store.Record(key.Sheet, key.CriterionKey)
		if merged.MaxScore == nil {
			merged.MaxScore = floatPtr(DefaultMaxScoreFor(merged))
		}
		touched = append(touched, merged)
	}
	if err := s.store.UpsertScores(ctx, id, touched); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}
	return nil
}

func checkScore(sc Score) error {
	if !ValidSheet(sc.Sheet) {
		return fmt.Errorf("%w: %q", ErrInvalidSheet, sc.Sheet)
	}
	if sc.Source != "" && !ValidSource(sc.Source) {
		return fmt.Errorf("%w: %q", ErrInvalidSource, sc.Source)
	}
	if strings.TrimSpace(sc.CriterionKey) == "" {
		return fmt.Errorf("%w: criterion key is required", ErrInvalidSheet)
	}
	return nil
}

// DefaultMaxScoreFor picks the max a row gets when none was supplied: the
// rubric max for rubric rows, 5 otherwise.
func DefaultMaxScoreFor(sc Score) float64 {
	if sc.Sheet == SheetScoreboard {
		ref := ParseScoreboardKey(sc.CriterionKey, sc.Category)
		if c, ok := LookupCriterion(ref.RubricKey); ok {
			return c.MaxScore
		}
	}
	if c, ok := LookupCriterion(sc.CriterionKey); ok {
		return c.MaxScore
	}
	return DefaultMaxScore
}

func (s *Service) DeleteScore(ctx context.Context, id, sheet, criterionKey string) error {
	if _, _, err := s.editable(ctx, id); err != nil {
		return err
	}
	deleted, err := s.store.DeleteScores(ctx, id, []ScoreKey{{Sheet: sheet, CriterionKey: criterionKey}})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrScoreNotFound
	}
	return nil
}

// GradeActivity validates a full rubric grade and saves it.
func (s *Service) GradeActivity(ctx context.Context, id, activityID string, grade ActivityGrade) (Detail, error) {
	rows, err := GradeRows(activityID, grade)
	if err != nil {
		return Detail{}, err
	}
	return s.SaveScores(ctx, id, rows)
}

func (s *Service) MarkNotSubmitted(ctx context.Context, id, activityID, label, remarks string) (Detail, error) {
	return s.SaveScores(ctx, id, NotSubmittedRows(activityID, label, remarks))
}

// DeleteActivity removes every row an activity owns, including its quiz
// grade, and returns how many rows were deleted.
func (s *Service) DeleteActivity(ctx context.Context, id, activityID string) (int, error) {
	_, store, err := s.editable(ctx, id)
	if err != nil {
		return 0, err
	}
	keys := ActivityKeys(store.Pending(), activityID)
	if len(keys) == 0 {
		return 0, ErrActivityNotFound
	}
	deleted, err := s.store.DeleteScores(ctx, id, keys)
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		store.Delete(k.Sheet, k.CriterionKey)
	}
	return deleted, nil
}

// AutoPopulate derives quiz grades and activity rows from the trainee's quiz
// attempts and activity submissions. Manually graded rows are left alone.
func (s *Service) AutoPopulate(ctx context.Context, id string) (AutoPopulateResult, error) {
	run := func(ctx context.Context) (any, error) {
		return s.autoPopulate(ctx, id)
	}
	var (
		out any
		err error
	)
	if s.jobs != nil {
		out, err = s.jobs.RunNow(ctx, JobAutoPopulate, run)
	} else {
		out, err = run(ctx)
	}
	if err != nil {
		return AutoPopulateResult{}, err
	}
	result, _ := out.(AutoPopulateResult)
	return result, nil
}

// SweepResult reports one pass of AutoPopulateOpen.
type SweepResult struct {
	Evaluations int      `json:"evaluations"`
	Rows        int      `json:"rows"`
	Failed      []string `json:"failed,omitempty"`
}

// AutoPopulateOpen refreshes derived rows on every evaluation that is still
// open for grading. A failing evaluation is reported and skipped.
func (s *Service) AutoPopulateOpen(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	for _, status := range []string{StatusDraft, StatusInProgress} {
		items, err := s.store.ListEvaluations(ctx, ListFilter{Status: status})
		if err != nil {
			return result, fmt.Errorf("list %s evaluations: %w", status, err)
		}
		for _, e := range items {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			out, err := s.autoPopulate(ctx, e.ID)
			if err != nil {
				result.Failed = append(result.Failed, e.ID)
				continue
			}
			result.Evaluations++
			result.Rows += out.Count
		}
	}
	return result, nil
}

func (s *Service) autoPopulate(ctx context.Context, id string) (AutoPopulateResult, error) {
	e, store, err := s.editable(ctx, id)
	if err != nil {
		return AutoPopulateResult{}, err
	}
	attempts, err := s.store.LatestQuizAttempts(ctx, e.UserID, e.LearningPathID)
	if err != nil {
		return AutoPopulateResult{}, fmt.Errorf("load quiz attempts: %w", err)
	}
	submissions, err := s.store.ActivitySubmissions(ctx, e.UserID, e.LearningPathID)
	if err != nil {
		return AutoPopulateResult{}, fmt.Errorf("load activity submissions: %w", err)
	}

	derived := DeriveScores(attempts, submissions)
	var pending []Score
	for _, sc := range derived {
		if existing, ok := store.Record(sc.Sheet, sc.CriterionKey); ok && manuallyGraded(existing) {
			continue
		}
		pending = append(pending, sc)
	}
	if err := s.persist(ctx, id, store, pending); err != nil {
		return AutoPopulateResult{}, err
	}
	if pending == nil {
		pending = []Score{}
	}
	return AutoPopulateResult{Count: len(pending), Scores: pending}, nil
}

func manuallyGraded(sc Score) bool {
	if sc.Source != SourceManual {
		return false
	}
	return sc.Score != nil || sc.Category == CategoryActivityMeta
}

// DeriveScores maps quiz attempts onto quiz_grades rows and activity
// submissions onto scoreboard meta rows.
func DeriveScores(attempts []QuizAttempt, submissions []ActivitySubmission) []Score {
	out := make([]Score, 0, len(attempts)+len(submissions))
	for _, a := range attempts {
		out = append(out, Score{
			Sheet:          SheetQuizGrades,
			Category:       SummativeCriterion,
			CriterionKey:   a.QuizID,
			CriterionLabel: a.QuizTitle,
			Score:          floatPtr(a.Score),
			MaxScore:       floatPtr(a.TotalItems),
			Source:         SourceAutoQuiz,
			SourceRefID:    a.ID,
		})
	}
	for _, sub := range submissions {
		row := Score{
			Sheet:          SheetScoreboard,
			Category:       CategoryActivityMeta,
			CriterionKey:   sub.ActivityID,
			CriterionLabel: sub.ActivityTitle,
			Source:         SourceAutoActivity,
			SourceRefID:    sub.ID,
			Score:          copyFloat(sub.Score),
			MaxScore:       copyFloat(sub.MaxScore),
		}
		if !sub.SubmittedAt.IsZero() {
			row.Remarks = "Submitted " + sub.SubmittedAt.Format("2006-01-02")
		}
		if sub.Status == "not_submitted" {
			row.Status = string(ActivityNotSubmitted)
			row.Remarks = notSubmittedPrefix
		}
		out = append(out, row)
	}
	return out
}

func (s *Service) Report(ctx context.Context, filter ListFilter) ([]ReportRow, error) {
	items, _, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	rows := make([]ReportRow, 0, len(items))
	for _, e := range items {
		scores, err := s.store.ListScores(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("list scores for %s: %w", e.ID, err)
		}
		summary := Summarize(scores)
		row := ReportRow{
			EvaluationID:       e.ID,
			UserID:             e.UserID,
			TraineeName:        s.traineeName(ctx, e),
			Status:             e.Status,
			BootcampPercent:    summary.BootcampPercent,
			PerformancePercent: summary.PerformancePercent,
			OverallScore:       summary.OverallScore,
			Rating:             summary.Rating,
			ActivitiesTotal:    len(summary.Activities),
		}
		for _, a := range summary.Activities {
			if a.Complete() {
				row.ActivitiesComplete++
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// traineeName prefers the name captured in trainee info, then the user
// record, then a placeholder.
func (s *Service) traineeName(ctx context.Context, e Evaluation) string {
	if name, ok := e.TraineeInfo["name"].(string); ok && strings.TrimSpace(name) != "" {
		return name
	}
	if name, err := s.store.UserDisplayName(ctx, e.UserID); err == nil && name != "" {
		return name
	}
	return "Unknown User"
}
