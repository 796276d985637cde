package evaluation

import "context"

type StoreAPI interface {
	CountEvaluations(ctx context.Context, filter ListFilter) (int, error)
	ListEvaluations(ctx context.Context, filter ListFilter) ([]Evaluation, error)
	GetEvaluation(ctx context.Context, id string) (Evaluation, error)
	CreateEvaluation(ctx context.Context, input CreateInput) (Evaluation, error)
	UpdateEvaluation(ctx context.Context, id string, patch Patch) (Evaluation, error)
	DeleteEvaluation(ctx context.Context, id string) error
	ListScores(ctx context.Context, evaluationID string) ([]Score, error)
	UpsertScores(ctx context.Context, evaluationID string, scores []Score) error
	DeleteScores(ctx context.Context, evaluationID string, keys []ScoreKey) (int, error)
	LatestQuizAttempts(ctx context.Context, userID, learningPathID string) ([]QuizAttempt, error)
	ActivitySubmissions(ctx context.Context, userID, learningPathID string) ([]ActivitySubmission, error)
	UserDisplayName(ctx context.Context, userID string) (string, error)
}
