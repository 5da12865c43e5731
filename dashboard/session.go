package dashboard

import (
	"context"
	"fmt"

	"github.com/jonwraymond/gymcache/api"
	"github.com/jonwraymond/gymcache/auth"
	"github.com/jonwraymond/gymcache/observe"
)

// Login exchanges credentials for a session. The user snapshot is fetched
// with the new token, stored with it, and seeded under the user's cache key.
func (d *Dashboard) Login(ctx context.Context, username, password string) (api.User, error) {
	resp, err := d.client.Login(ctx, api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return api.User{}, err
	}
	return d.establish(ctx, resp)
}

// Register creates an account and logs it in.
func (d *Dashboard) Register(ctx context.Context, name, username, password string) (api.User, error) {
	resp, err := d.client.Register(ctx, api.RegisterRequest{Name: name, Username: username, Password: password})
	if err != nil {
		return api.User{}, err
	}
	return d.establish(ctx, resp)
}

func (d *Dashboard) establish(ctx context.Context, resp api.AuthResponse) (api.User, error) {
	user, err := d.client.GetUser(auth.WithToken(ctx, resp.Token), resp.ID)
	if err != nil {
		return api.User{}, fmt.Errorf("dashboard: load user %d: %w", resp.ID, err)
	}

	// Data cached for another account must not leak into this one.
	if prev, ok := d.session.User(); ok && prev.ID != user.ID {
		d.resetCaches(ctx)
	}
	if _, err := d.engine.Mutate(api.UserPath(user.ID), user); err != nil {
		return api.User{}, err
	}
	if err := d.session.Set(ctx, resp.Token, user); err != nil {
		return api.User{}, err
	}
	return user, nil
}

// Logout ends the session and drops every cached response. The caches are
// reset even when clearing durable storage fails.
func (d *Dashboard) Logout(ctx context.Context) error {
	err := d.session.Clear(ctx)
	d.resetCaches(ctx)
	if err != nil {
		d.logger.Warn(ctx, "logout: session storage not cleared", observe.F("error", err))
	}
	return err
}

// RefreshUser refetches the session user, updating the session snapshot and
// the user's cache key. Concurrent calls share one request.
func (d *Dashboard) RefreshUser(ctx context.Context) (api.User, error) {
	cur, ok := d.session.User()
	if !ok {
		return api.User{}, auth.ErrNoSession
	}
	key := api.UserPath(cur.ID)
	v, err, _ := d.userFlight.Do(key, func() (any, error) {
		u, err := d.client.GetUser(ctx, cur.ID)
		if err != nil {
			return nil, err
		}
		d.applyUser(ctx, u)
		return u, nil
	})
	if err != nil {
		return api.User{}, err
	}
	return v.(api.User), nil
}

// applyUser publishes a server-confirmed user snapshot.
func (d *Dashboard) applyUser(ctx context.Context, u api.User) {
	if _, err := d.engine.Mutate(api.UserPath(u.ID), u); err != nil {
		d.logger.Warn(ctx, "user cache update failed", observe.F("error", err))
	}
	if cur, ok := d.session.User(); ok && cur.ID == u.ID {
		if err := d.session.UpdateUser(ctx, u); err != nil {
			d.logger.Warn(ctx, "session user update failed", observe.F("error", err))
		}
	}
}
