package hooks

import (
	"github.com/jonwraymond/gymcache/api"
	"github.com/jonwraymond/gymcache/fetcher"
)

// User follows GET /api/users/{id} (useUser). An id <= 0 disables the
// query.
func User(env Env, id int64) (*Query[api.User], error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	cfg := queryConfig[api.User]{policy: env.policies().User}
	if id > 0 {
		cfg.key = api.UserPath(id)
		cfg.fetcher = fetcher.User(env.Client, id, env.FetchOptions...)
	}
	return newQuery(env, cfg)
}

// Exercises follows GET /api/exercises (useExercises).
func Exercises(env Env) (*Query[[]api.Exercise], error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	return newQuery(env, queryConfig[[]api.Exercise]{
		key:     api.ExercisesPath,
		fetcher: fetcher.Exercises(env.Client, env.FetchOptions...),
		policy:  env.policies().Exercises,
		empty:   []api.Exercise{},
	})
}

// Routines follows GET /api/routines (useRoutines).
func Routines(env Env) (*Query[[]api.Routine], error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	return newQuery(env, queryConfig[[]api.Routine]{
		key:     api.RoutinesPath,
		fetcher: fetcher.Routines(env.Client, env.FetchOptions...),
		policy:  env.policies().Routines,
		empty:   []api.Routine{},
	})
}

// AdminUsers follows GET /api/admin/users (useAdminUsers). The query is
// disabled unless the session user is an administrator when it is created.
func AdminUsers(env Env) (*Query[[]api.User], error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	cfg := queryConfig[[]api.User]{
		policy: env.policies().AdminUsers,
		empty:  []api.User{},
	}
	if env.Session != nil && env.Session.IsAdmin() {
		cfg.key = api.AdminUsersPath
		cfg.fetcher = fetcher.AdminUsers(env.Client, env.FetchOptions...)
	}
	return newQuery(env, cfg)
}
