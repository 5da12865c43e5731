package hooks

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/gymcache/api"
)

// CombinedState is the merged view of exercises and routines.
type CombinedState struct {
	Exercises       []api.Exercise
	Routines        []api.Routine
	IsLoading       bool
	IsValidating    bool
	Err             error
	Unauthenticated bool
}

// IsError reports whether either resource failed.
func (s CombinedState) IsError() bool { return s.Err != nil }

// Combined follows exercises and routines together. One resource may
// resolve while the other still loads.
type Combined struct {
	Exercises *Query[[]api.Exercise]
	Routines  *Query[[]api.Routine]

	mu     sync.Mutex
	unsubs []func()
}

// ExercisesAndRoutines subscribes to both lists.
func ExercisesAndRoutines(env Env) (*Combined, error) {
	ex, err := Exercises(env)
	if err != nil {
		return nil, err
	}
	rt, err := Routines(env)
	if err != nil {
		ex.Close()
		return nil, err
	}
	return &Combined{Exercises: ex, Routines: rt}, nil
}

// Snapshot merges the two states. IsLoading is true while either is
// loading; Err is the first error, exercises before routines.
func (c *Combined) Snapshot() CombinedState {
	return combine(c.Exercises.Snapshot(), c.Routines.Snapshot())
}

func combine(ex State[[]api.Exercise], rt State[[]api.Routine]) CombinedState {
	st := CombinedState{
		Exercises:       ex.Data,
		Routines:        rt.Data,
		IsLoading:       ex.IsLoading || rt.IsLoading,
		IsValidating:    ex.IsValidating || rt.IsValidating,
		Unauthenticated: ex.Unauthenticated || rt.Unauthenticated,
	}
	switch {
	case ex.Err != nil:
		st.Err = ex.Err
	case rt.Err != nil:
		st.Err = rt.Err
	}
	return st
}

// IsLoading reports whether either list is loading.
func (c *Combined) IsLoading() bool { return c.Snapshot().IsLoading }

// IsError reports whether either list holds an error.
func (c *Combined) IsError() bool { return c.Snapshot().Err != nil }

// Err returns the first error, exercises before routines.
func (c *Combined) Err() error { return c.Snapshot().Err }

// Refresh refreshes both lists concurrently and returns their errors
// joined.
func (c *Combined) Refresh(ctx context.Context) error {
	var exErr, rtErr error
	var g errgroup.Group
	g.Go(func() error {
		_, exErr = c.Exercises.Refresh(ctx)
		return nil
	})
	g.Go(func() error {
		_, rtErr = c.Routines.Refresh(ctx)
		return nil
	})
	_ = g.Wait()
	return errors.Join(exErr, rtErr)
}

// Subscribe registers fn for changes of either list.
func (c *Combined) Subscribe(fn func(CombinedState)) (unsubscribe func()) {
	a := c.Exercises.Subscribe(func(State[[]api.Exercise]) { fn(c.Snapshot()) })
	b := c.Routines.Subscribe(func(State[[]api.Routine]) { fn(c.Snapshot()) })
	c.mu.Lock()
	c.unsubs = append(c.unsubs, a, b)
	c.mu.Unlock()
	return func() {
		a()
		b()
	}
}

// Wait blocks until neither list is loading.
func (c *Combined) Wait(ctx context.Context) (CombinedState, error) {
	if _, err := c.Exercises.Wait(ctx); err != nil {
		return c.Snapshot(), err
	}
	if _, err := c.Routines.Wait(ctx); err != nil {
		return c.Snapshot(), err
	}
	return c.Snapshot(), nil
}

// Close closes both queries.
func (c *Combined) Close() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()
	for _, fn := range unsubs {
		fn()
	}
	c.Exercises.Close()
	c.Routines.Close()
}
