package auth

import "context"

const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleLearner    = "learner"

	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

const (
	PermEvaluationsRead   = "evaluations.read"
	PermEvaluationsWrite  = "evaluations.write"
	PermEvaluationsDelete = "evaluations.delete"
	PermEvaluationsGrade  = "evaluations.grade"
	PermEvaluationsExport = "evaluations.export"
	PermReportsRead       = "reports.read"
	PermAuditRead         = "audit.read"
)

var DefaultPermissions = []string{
	PermEvaluationsRead,
	PermEvaluationsWrite,
	PermEvaluationsDelete,
	PermEvaluationsGrade,
	PermEvaluationsExport,
	PermReportsRead,
	PermAuditRead,
}

// RolePermissions is the fixed role grant table. Learners never reach the
// admin surface.
var RolePermissions = map[string][]string{
	RoleSuperAdmin: DefaultPermissions,
	RoleAdmin: {
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsGrade,
		PermEvaluationsExport,
		PermReportsRead,
	},
	RoleLearner: {},
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	for _, granted := range RolePermissions[role] {
		if granted == permission {
			return true, nil
		}
	}
	return false, nil
}
