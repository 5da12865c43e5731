package api

import (
	"context"
	"net/http"
)

// ListExercises fetches the catalog. A body that is not a JSON array is a
// *ValidationError, never an empty list.
func (c *Client) ListExercises(ctx context.Context) ([]Exercise, error) {
	var out []Exercise
	err := c.do(ctx, call{method: http.MethodGet, path: ExercisesPath, out: &out, list: true})
	return out, err
}

// CreateExercise adds an exercise (admin only).
func (c *Client) CreateExercise(ctx context.Context, req ExerciseRequest) (Exercise, error) {
	var e Exercise
	err := c.do(ctx, call{method: http.MethodPost, path: ExercisesPath, in: req, out: &e})
	return e, err
}

// UpdateExercise replaces an exercise (admin only).
func (c *Client) UpdateExercise(ctx context.Context, id int64, req ExerciseRequest) (Exercise, error) {
	if err := validID(id); err != nil {
		return Exercise{}, err
	}
	var e Exercise
	err := c.do(ctx, call{method: http.MethodPut, path: exercisePath(id), in: req, out: &e})
	return e, err
}

// DeleteExercise removes an exercise (admin only).
func (c *Client) DeleteExercise(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	return c.do(ctx, call{method: http.MethodDelete, path: exercisePath(id), out: &Message{}})
}
