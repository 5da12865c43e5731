package dashboard

import (
	"github.com/jonwraymond/gymcache/api"
	"github.com/jonwraymond/gymcache/hooks"
)

// Hooks returns the environment hook constructors need.
func (d *Dashboard) Hooks() hooks.Env { return d.env }

// User follows the session user. The query is disabled while anonymous.
func (d *Dashboard) User() (*hooks.Query[api.User], error) {
	u, _ := d.session.User()
	return hooks.User(d.env, u.ID)
}

// UserByID follows any user.
func (d *Dashboard) UserByID(id int64) (*hooks.Query[api.User], error) {
	return hooks.User(d.env, id)
}

func (d *Dashboard) Exercises() (*hooks.Query[[]api.Exercise], error) {
	return hooks.Exercises(d.env)
}

func (d *Dashboard) Routines() (*hooks.Query[[]api.Routine], error) {
	return hooks.Routines(d.env)
}

// AdminUsers is disabled unless the session user is an administrator.
func (d *Dashboard) AdminUsers() (*hooks.Query[[]api.User], error) {
	return hooks.AdminUsers(d.env)
}

func (d *Dashboard) ExercisesAndRoutines() (*hooks.Combined, error) {
	return hooks.ExercisesAndRoutines(d.env)
}
