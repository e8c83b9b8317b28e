// Package principal carries the authenticated caller through a request
// context. Authentication itself lives in the gateway in front of this
// service; handlers only consume the resolved identity and role.
package principal

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

type Principal struct {
	UserID snowflake.ID
	Role   Role
}

type contextKey struct{}

func With(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	default:
		return false
	}
}
