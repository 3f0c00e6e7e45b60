package ports

import "context"

// RoleGranter assigns platform roles to subjects
type RoleGranter interface {
	Grant(ctx context.Context, subjectID, role string) error
}
