package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const evaluationColumns = `
    id, user_id, COALESCE(learning_path_id::text, ''), COALESCE(evaluator_id::text, ''),
    status, trainee_info, period_start, period_end, created_at, updated_at
`

func scanEvaluation(row pgx.Row) (Evaluation, error) {
	var out Evaluation
	var traineeJSON []byte
	if err := row.Scan(&out.ID, &out.UserID, &out.LearningPathID, &out.EvaluatorID, &out.Status, &traineeJSON, &out.PeriodStart, &out.PeriodEnd, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return Evaluation{}, err
	}
	out.TraineeInfo = map[string]any{}
	if len(traineeJSON) > 0 {
		if err := json.Unmarshal(traineeJSON, &out.TraineeInfo); err != nil {
			out.TraineeInfo = map[string]any{}
		}
	}
	return out, nil
}

func listWhere(filter ListFilter) (string, []any) {
	clause := " WHERE 1=1"
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		clause += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clause += fmt.Sprintf(" AND status = $%d", len(args))
	}
	return clause, args
}

func (s *Store) CountEvaluations(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhere(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM evaluations"+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListEvaluations(ctx context.Context, filter ListFilter) ([]Evaluation, error) {
	where, args := listWhere(filter)
	query := "SELECT " + evaluationColumns + " FROM evaluations" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	e, err := scanEvaluation(s.DB.QueryRow(ctx, "SELECT "+evaluationColumns+" FROM evaluations WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrEvaluationNotFound
	}
	return e, err
}

func (s *Store) CreateEvaluation(ctx context.Context, input CreateInput) (Evaluation, error) {
	traineeJSON, err := json.Marshal(nonNilMap(input.TraineeInfo))
	if err != nil {
		return Evaluation{}, err
	}
	return scanEvaluation(s.DB.QueryRow(ctx, `
    INSERT INTO evaluations (user_id, learning_path_id, evaluator_id, status, trainee_info, period_start, period_end)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+evaluationColumns,
		input.UserID, nullIfEmpty(input.LearningPathID), nullIfEmpty(input.EvaluatorID), StatusDraft, traineeJSON, input.PeriodStart, input.PeriodEnd))
}

func (s *Store) UpdateEvaluation(ctx context.Context, id string, patch Patch) (Evaluation, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.TraineeInfo != nil {
		traineeJSON, err := json.Marshal(patch.TraineeInfo)
		if err != nil {
			return Evaluation{}, err
		}
		add("trainee_info", traineeJSON)
	}
	if patch.PeriodStart != nil {
		add("period_start", *patch.PeriodStart)
	}
	if patch.PeriodEnd != nil {
		add("period_end", *patch.PeriodEnd)
	}
	if patch.LearningPathID != nil {
		add("learning_path_id", nullIfEmpty(*patch.LearningPathID))
	}
	if patch.EvaluatorID != nil {
		add("evaluator_id", nullIfEmpty(*patch.EvaluatorID))
	}
	if patch.UserID != nil {
		add("user_id", *patch.UserID)
	}
	if len(sets) == 0 {
		return Evaluation{}, ErrNothingToUpdate
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	e, err := scanEvaluation(s.DB.QueryRow(ctx, fmt.Sprintf(
		"UPDATE evaluations SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), evaluationColumns,
	), args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrEvaluationNotFound
	}
	return e, err
}

func (s *Store) DeleteEvaluation(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM evaluations WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEvaluationNotFound
	}
	return nil
}

func (s *Store) ListScores(ctx context.Context, evaluationID string) ([]Score, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT sheet, COALESCE(category, ''), criterion_key, COALESCE(criterion_label, ''),
           score, max_score, weight, COALESCE(remarks, ''), source, COALESCE(source_ref_id, ''),
           COALESCE(status, ''), updated_at
    FROM evaluation_scores
    WHERE evaluation_id = $1
    ORDER BY sheet, criterion_key
  `, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Score
	for rows.Next() {
		var sc Score
		if err := rows.Scan(&sc.Sheet, &sc.Category, &sc.CriterionKey, &sc.CriterionLabel, &sc.Score, &sc.MaxScore, &sc.Weight, &sc.Remarks, &sc.Source, &sc.SourceRefID, &sc.Status, &sc.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) UpsertScores(ctx context.Context, evaluationID string, scores []Score) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, sc := range scores {
		maxScore := DefaultMaxScore
		if sc.MaxScore != nil {
			maxScore = *sc.MaxScore
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO evaluation_scores (evaluation_id, sheet, category, criterion_key, criterion_label, score, max_score, weight, remarks, source, source_ref_id, status, updated_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now())
      ON CONFLICT (evaluation_id, sheet, criterion_key) DO UPDATE
      SET category = EXCLUDED.category,
          criterion_label = EXCLUDED.criterion_label,
          score = EXCLUDED.score,
          max_score = EXCLUDED.max_score,
          weight = EXCLUDED.weight,
          remarks = EXCLUDED.remarks,
          source = EXCLUDED.source,
          source_ref_id = EXCLUDED.source_ref_id,
          status = EXCLUDED.status,
          updated_at = now()
    `, evaluationID, sc.Sheet, nullIfEmpty(sc.Category), sc.CriterionKey, nullIfEmpty(sc.CriterionLabel), sc.Score, maxScore, sc.Weight, nullIfEmpty(sc.Remarks), sc.Source, nullIfEmpty(sc.SourceRefID), nullIfEmpty(sc.Status)); err != nil {
			return fmt.Errorf("upsert score %s: %w", sc.Key(), err)
		}
	}

	if _, err := tx.Exec(ctx, "UPDATE evaluations SET updated_at = now() WHERE id = $1", evaluationID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) DeleteScores(ctx context.Context, evaluationID string, keys []ScoreKey) (int, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deleted := 0
	for _, key := range keys {
		tag, err := tx.Exec(ctx, `
      DELETE FROM evaluation_scores
      WHERE evaluation_id = $1 AND sheet = $2 AND criterion_key = $3
    `, evaluationID, key.Sheet, key.CriterionKey)
		if err != nil {
			return 0, err
		}
		deleted += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *Store) LatestQuizAttempts(ctx context.Context, userID, learningPathID string) ([]QuizAttempt, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT ON (qa.quiz_id) qa.id, qa.quiz_id, q.title, qa.score, qa.total_items, qa.submitted_at
    FROM quiz_attempts qa
    JOIN quizzes q ON q.id = qa.quiz_id
    WHERE qa.user_id = $1 AND qa.submitted_at IS NOT NULL
      AND ($2 = '' OR q.learning_path_id::text = $2)
    ORDER BY qa.quiz_id, qa.submitted_at DESC
  `, userID, learningPathID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QuizAttempt
	for rows.Next() {
		var a QuizAttempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.QuizTitle, &a.Score, &a.TotalItems, &a.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ActivitySubmissions(ctx context.Context, userID, learningPathID string) ([]ActivitySubmission, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT ON (sub.activity_id) sub.id, sub.activity_id, a.title, sub.status, sub.score, sub.max_score, sub.submitted_at
    FROM activity_submissions sub
    JOIN activities a ON a.id = sub.activity_id
    WHERE sub.user_id = $1
      AND ($2 = '' OR a.learning_path_id::text = $2)
    ORDER BY sub.activity_id, sub.submitted_at DESC NULLS LAST
  `, userID, learningPathID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivitySubmission
	for rows.Next() {
		var sub ActivitySubmission
		var submittedAt *time.Time
		if err := rows.Scan(&sub.ID, &sub.ActivityID, &sub.ActivityTitle, &sub.Status, &sub.Score, &sub.MaxScore, &submittedAt); err != nil {
			return nil, err
		}
		if submittedAt != nil {
			sub.SubmittedAt = *submittedAt
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) UserDisplayName(ctx context.Context, userID string) (string, error) {
	var name string
	if err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(NULLIF(full_name, ''), email)
    FROM users
    WHERE id = $1
  `, userID).Scan(&name); err != nil {
		return "", err
	}
	return name, nil
}

func nullIfEmpty(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

var _ StoreAPI = (*Store)(nil)

// dateOnly drops the clock part so DATE columns round-trip.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
