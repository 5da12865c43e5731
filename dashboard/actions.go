package dashboard

import (
	"context"

	"github.com/jonwraymond/gymcache/api"
	"github.com/jonwraymond/gymcache/auth"
	"github.com/jonwraymond/gymcache/observe"
)

func (d *Dashboard) currentUser() (api.User, error) {
	u, ok := d.session.User()
	if !ok {
		return api.User{}, auth.ErrNoSession
	}
	return u, nil
}

// cachedUser returns the freshest known snapshot of u: the cache entry when
// it holds one, otherwise u itself.
func (d *Dashboard) cachedUser(u api.User) api.User {
	if e := d.store.Get(api.UserPath(u.ID)); e != nil {
		if cu, ok := e.Data.(api.User); ok {
			return cu
		}
	}
	return u
}

// optimistic publishes next for the user and returns a function that puts
// prev back.
func (d *Dashboard) optimistic(ctx context.Context, prev, next api.User) (rollback func()) {
	key := api.UserPath(prev.ID)
	if _, err := d.engine.Mutate(key, next); err != nil {
		d.logger.Warn(ctx, "optimistic update failed", observe.F("key", key), observe.F("error", err))
		return func() {}
	}
	return func() {
		if _, err := d.engine.Mutate(key, prev); err != nil {
			d.logger.Warn(ctx, "rollback failed", observe.F("key", key), observe.F("error", err))
		}
	}
}

// refreshKey revalidates key after a write. Subscribed keys are refetched
// now; unsubscribed ones are dropped so the next subscriber fetches. A
// failed refetch does not fail the write.
func (d *Dashboard) refreshKey(ctx context.Context, key string) {
	if !d.engine.Subscribed(key) {
		d.store.Delete(key)
		return
	}
	if _, err := d.engine.Refresh(ctx, key); err != nil {
		d.logger.Warn(ctx, "revalidate after write failed", observe.F("key", key), observe.F("error", err))
	}
}

// Train raises one stat of the session user. The cache shows the expected
// result immediately and is corrected by the server's answer.
func (d *Dashboard) Train(ctx context.Context, stat api.Stat, amount int) (api.User, error) {
	req := api.TrainRequest{Stat: stat, Amount: amount}.WithDefaults()
	if err := req.Validate(); err != nil {
		return api.User{}, err
	}
	cur, err := d.currentUser()
	if err != nil {
		return api.User{}, err
	}

	prev := d.cachedUser(cur)
	rollback := d.optimistic(ctx, prev, prev.WithTraining(req.Stat, req.Amount))
	u, err := d.client.Train(ctx, cur.ID, req)
	if err != nil {
		if !api.IsAuthExpired(err) {
			rollback()
		}
		return api.User{}, err
	}
	d.applyUser(ctx, u)
	return u, nil
}

// Rest lowers every stat of the session user, optimistically like Train.
func (d *Dashboard) Rest(ctx context.Context, amount int) (api.User, error) {
	req := api.RestRequest{Amount: amount}.WithDefaults()
	if err := req.Validate(); err != nil {
		return api.User{}, err
	}
	cur, err := d.currentUser()
	if err != nil {
		return api.User{}, err
	}

	prev := d.cachedUser(cur)
	rollback := d.optimistic(ctx, prev, prev.WithRest(req.Amount))
	u, err := d.client.Rest(ctx, cur.ID, req)
	if err != nil {
		if !api.IsAuthExpired(err) {
			rollback()
		}
		return api.User{}, err
	}
	d.applyUser(ctx, u)
	return u, nil
}

// Purchase buys the accessory. It is refused locally unless every stat is
// maxed and nothing was bought yet.
func (d *Dashboard) Purchase(ctx context.Context, accessory string) (api.Accessory, error) {
	req := api.PurchaseRequest{AccessoryName: accessory}
	if err := req.Validate(); err != nil {
		return api.Accessory{}, err
	}
	cur, err := d.currentUser()
	if err != nil {
		return api.Accessory{}, err
	}
	if !d.cachedUser(cur).CanPurchase() {
		return api.Accessory{}, &api.ValidationError{
			Field:  "accessoryName",
			Reason: "all stats must be maxed and no accessory purchased",
		}
	}

	a, err := d.client.Purchase(ctx, cur.ID, req)
	if err != nil {
		return api.Accessory{}, err
	}
	d.refreshUser(ctx)
	return a, nil
}

// AddSession logs a training session for the session user.
func (d *Dashboard) AddSession(ctx context.Context, description string) (api.TrainingSession, error) {
	req := api.SessionRequest{Description: description}
	if err := req.Validate(); err != nil {
		return api.TrainingSession{}, err
	}
	cur, err := d.currentUser()
	if err != nil {
		return api.TrainingSession{}, err
	}
	s, err := d.client.AddSession(ctx, cur.ID, req)
	if err != nil {
		return api.TrainingSession{}, err
	}
	d.refreshUser(ctx)
	return s, nil
}

// Sessions lists the session user's training sessions. The list is not
// cached.
func (d *Dashboard) Sessions(ctx context.Context) ([]api.TrainingSession, error) {
	cur, err := d.currentUser()
	if err != nil {
		return nil, err
	}
	return d.client.Sessions(ctx, cur.ID)
}

func (d *Dashboard) refreshUser(ctx context.Context) {
	if _, err := d.RefreshUser(ctx); err != nil {
		d.logger.Warn(ctx, "user refresh after write failed", observe.F("error", err))
	}
}

func (d *Dashboard) CreateExercise(ctx context.Context, req api.ExerciseRequest) (api.Exercise, error) {
	e, err := d.client.CreateExercise(ctx, req)
	if err != nil {
		return api.Exercise{}, err
	}
	d.refreshKey(ctx, api.ExercisesPath)
	return e, nil
}

func (d *Dashboard) UpdateExercise(ctx context.Context, id int64, req api.ExerciseRequest) (api.Exercise, error) {
	e, err := d.client.UpdateExercise(ctx, id, req)
	if err != nil {
		return api.Exercise{}, err
	}
	d.refreshKey(ctx, api.ExercisesPath)
	return e, nil
}

// DeleteExercise also revalidates routines, which embed exercises.
func (d *Dashboard) DeleteExercise(ctx context.Context, id int64) error {
	if err := d.client.DeleteExercise(ctx, id); err != nil {
		return err
	}
	d.refreshKey(ctx, api.ExercisesPath)
	d.refreshKey(ctx, api.RoutinesPath)
	return nil
}

func (d *Dashboard) CreateRoutine(ctx context.Context, req api.RoutineRequest) (api.Routine, error) {
	r, err := d.client.CreateRoutine(ctx, req)
	if err != nil {
		return api.Routine{}, err
	}
	d.refreshKey(ctx, api.RoutinesPath)
	return r, nil
}

func (d *Dashboard) UpdateRoutine(ctx context.Context, id int64, req api.RoutineRequest) (api.Routine, error) {
	r, err := d.client.UpdateRoutine(ctx, id, req)
	if err != nil {
		return api.Routine{}, err
	}
	d.refreshKey(ctx, api.RoutinesPath)
	return r, nil
}

func (d *Dashboard) DeleteRoutine(ctx context.Context, id int64) error {
	if err := d.client.DeleteRoutine(ctx, id); err != nil {
		return err
	}
	d.refreshKey(ctx, api.RoutinesPath)
	return nil
}

// Admin actions require the ADMIN role and are refused before dispatch
// otherwise.

func (d *Dashboard) CreateUser(ctx context.Context, req api.CreateUserRequest) (api.User, error) {
	if err := d.session.Require(api.RoleAdmin); err != nil {
		return api.User{}, err
	}
	u, err := d.client.CreateUser(ctx, req)
	if err != nil {
		return api.User{}, err
	}
	d.refreshKey(ctx, api.AdminUsersPath)
	return u, nil
}

func (d *Dashboard) UpdateUser(ctx context.Context, id int64, req api.UpdateUserRequest) (api.User, error) {
	if err := d.session.Require(api.RoleAdmin); err != nil {
		return api.User{}, err
	}
	u, err := d.client.UpdateUser(ctx, id, req)
	if err != nil {
		return api.User{}, err
	}
	d.afterAdminWrite(ctx, u)
	return u, nil
}

func (d *Dashboard) DeleteUser(ctx context.Context, id int64) error {
	if err := d.session.Require(api.RoleAdmin); err != nil {
		return err
	}
	if err := d.client.DeleteUser(ctx, id); err != nil {
		return err
	}
	d.store.Delete(api.UserPath(id))
	d.refreshKey(ctx, api.AdminUsersPath)
	return nil
}

func (d *Dashboard) ChangeRole(ctx context.Context, id int64, role api.Role) (api.User, error) {
	if err := d.session.Require(api.RoleAdmin); err != nil {
		return api.User{}, err
	}
	u, err := d.client.ChangeRole(ctx, id, role)
	if err != nil {
		return api.User{}, err
	}
	d.afterAdminWrite(ctx, u)
	return u, nil
}

func (d *Dashboard) ResetPassword(ctx context.Context, id int64, password string) error {
	if err := d.session.Require(api.RoleAdmin); err != nil {
		return err
	}
	return d.client.ResetPassword(ctx, id, password)
}

// afterAdminWrite publishes an edited user. Editing oneself also updates
// the session, which may drop the admin role.
func (d *Dashboard) afterAdminWrite(ctx context.Context, u api.User) {
	if u.ID > 0 {
		d.applyUser(ctx, u)
	}
	d.refreshKey(ctx, api.AdminUsersPath)
}
