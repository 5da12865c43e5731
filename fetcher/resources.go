package fetcher

import (
	"context"

	"github.com/jonwraymond/gymcache/api"
)

// Resource names used for spans, metrics, and cache policies.
const (
	ResourceUser       = "user"
	ResourceExercises  = "exercises"
	ResourceRoutines   = "routines"
	ResourceAdminUsers = "admin_users"
)

// Client is the slice of api.Client the resource bindings read through.
type Client interface {
	GetUser(ctx context.Context, id int64) (api.User, error)
	ListExercises(ctx context.Context) ([]api.Exercise, error)
	ListRoutines(ctx context.Context) ([]api.Routine, error)
	ListUsers(ctx context.Context) ([]api.User, error)
}

var _ Client = (*api.Client)(nil)

// User binds GET /api/users/{id}. The key is api.UserPath(id).
func User(c Client, id int64, opts ...Option) *Binding[api.User] {
	return Bind[api.User](ResourceUser, func(ctx context.Context, _ string) (api.User, error) {
		return c.GetUser(ctx, id)
	}, opts...)
}

// Exercises binds GET /api/exercises.
func Exercises(c Client, opts ...Option) *Binding[[]api.Exercise] {
	return BindList[api.Exercise](ResourceExercises, func(ctx context.Context, _ string) ([]api.Exercise, error) {
		return c.ListExercises(ctx)
	}, opts...)
}

// Routines binds GET /api/routines.
func Routines(c Client, opts ...Option) *Binding[[]api.Routine] {
	return BindList[api.Routine](ResourceRoutines, func(ctx context.Context, _ string) ([]api.Routine, error) {
		return c.ListRoutines(ctx)
	}, opts...)
}

// AdminUsers binds GET /api/admin/users.
func AdminUsers(c Client, opts ...Option) *Binding[[]api.User] {
	return BindList[api.User](ResourceAdminUsers, func(ctx context.Context, _ string) ([]api.User, error) {
		return c.ListUsers(ctx)
	}, opts...)
}
