package evaluation

import "errors"

var (
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrScoreNotFound      = errors.New("evaluation score not found")
	ErrActivityNotFound   = errors.New("scoreboard activity not found")
	ErrInvalidStatus      = errors.New("invalid evaluation status")
	ErrInvalidSheet       = errors.New("invalid score sheet")
	ErrInvalidSource      = errors.New("invalid score source")
	ErrInvalidPeriod      = errors.New("period end must be on or after period start")
	ErrFinalized          = errors.New("evaluation is finalized")
	ErrNothingToUpdate    = errors.New("no fields to update")
)
