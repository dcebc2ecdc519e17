package shared

import "context"

// Role is a staff role carried by the acting user
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleStaff      Role = "staff"
)

// Actor is the authenticated principal performing an operation
type Actor struct {
	ID   string
	Role Role
}

// CanVerify reports whether the actor may approve plans and installments
func (a Actor) CanVerify() bool {
	return a.Role == RoleAdmin || a.Role == RoleSupervisor
}

type actorKey struct{}

// WithActor stores the actor in ctx
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, if any
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.ID == "" {
		return Actor{}, false
	}
	return actor, true
}

// RequireVerifier returns the actor if it holds a verifying role
func RequireVerifier(ctx context.Context) (Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return Actor{}, ErrNoActor
	}
	if !actor.CanVerify() {
		return Actor{}, NewAuthorizationError("role " + string(actor.Role) + " may not verify records")
	}
	return actor, nil
}
