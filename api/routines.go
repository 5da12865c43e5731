package api

import (
	"context"
	"net/http"
)

// ListRoutines fetches the session user's routines.
func (c *Client) ListRoutines(ctx context.Context) ([]Routine, error) {
	var out []Routine
	err := c.do(ctx, call{method: http.MethodGet, path: RoutinesPath, out: &out, list: true})
	return out, err
}

func (c *Client) CreateRoutine(ctx context.Context, req RoutineRequest) (Routine, error) {
	var r Routine
	err := c.do(ctx, call{method: http.MethodPost, path: RoutinesPath, in: req, out: &r})
	return r, err
}

func (c *Client) UpdateRoutine(ctx context.Context, id int64, req RoutineRequest) (Routine, error) {
	if err := validID(id); err != nil {
		return Routine{}, err
	}
	var r Routine
	err := c.do(ctx, call{method: http.MethodPut, path: routinePath(id), in: req, out: &r})
	return r, err
}

func (c *Client) DeleteRoutine(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	return c.do(ctx, call{method: http.MethodDelete, path: routinePath(id), out: &Message{}})
}
