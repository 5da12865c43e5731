package api

import (
	"context"
	"net/http"
)

// ListUsers fetches every account (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := c.do(ctx, call{method: http.MethodGet, path: AdminUsersPath, out: &out, list: true})
	return out, err
}

// CreateUser adds an account. An empty role means USER.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (User, error) {
	var u User
	err := c.do(ctx, call{method: http.MethodPost, path: AdminUsersPath, in: req, out: &u})
	return u, err
}

func (c *Client) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (User, error) {
	if err := validID(id); err != nil {
		return User{}, err
	}
	var u User
	err := c.do(ctx, call{method: http.MethodPut, path: adminUserPath(id), in: req, out: &u})
	return u, err
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	return c.do(ctx, call{method: http.MethodDelete, path: adminUserPath(id), out: &Message{}})
}

// ChangeRole sets a user's role.
func (c *Client) ChangeRole(ctx context.Context, id int64, role Role) (User, error) {
	if err := validID(id); err != nil {
		return User{}, err
	}
	var u User
	err := c.do(ctx, call{method: http.MethodPut, path: adminUserPath(id) + "/role", in: RoleRequest{Role: role}, out: &u})
	return u, err
}

// ResetPassword sets a user's password.
func (c *Client) ResetPassword(ctx context.Context, id int64, password string) error {
	if err := validID(id); err != nil {
		return err
	}
	return c.do(ctx, call{method: http.MethodPut, path: adminUserPath(id) + "/password", in: PasswordRequest{Password: password}, out: &Message{}})
}
