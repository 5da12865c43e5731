package api

import (
	"context"
	"net/http"
)

// GetUser fetches the user snapshot.
func (c *Client) GetUser(ctx context.Context, id int64) (User, error) {
	if err := validID(id); err != nil {
		return User{}, err
	}
	var u User
	err := c.do(ctx, call{method: http.MethodGet, path: UserPath(id), out: &u})
	return u, err
}

// Train raises one stat and returns the updated user. A zero amount uses
// DefaultTrainAmount.
func (c *Client) Train(ctx context.Context, id int64, req TrainRequest) (User, error) {
	if err := validID(id); err != nil {
		return User{}, err
	}
	var u User
	err := c.do(ctx, call{method: http.MethodPost, path: userActionPath(id, "train"), in: req.WithDefaults(), out: &u})
	return u, err
}

// Rest lowers every stat and returns the updated user. A zero amount uses
// DefaultRestAmount.
func (c *Client) Rest(ctx context.Context, id int64, req RestRequest) (User, error) {
	if err := validID(id); err != nil {
		return User{}, err
	}
	var u User
	err := c.do(ctx, call{method: http.MethodPost, path: userActionPath(id, "rest"), in: req.WithDefaults(), out: &u})
	return u, err
}

// Purchase buys the accessory.
func (c *Client) Purchase(ctx context.Context, id int64, req PurchaseRequest) (Accessory, error) {
	if err := validID(id); err != nil {
		return Accessory{}, err
	}
	var a Accessory
	err := c.do(ctx, call{method: http.MethodPost, path: userActionPath(id, "purchase"), in: req, out: &a})
	return a, err
}

// AddSession logs a free-form training session.
func (c *Client) AddSession(ctx context.Context, id int64, req SessionRequest) (TrainingSession, error) {
	if err := validID(id); err != nil {
		return TrainingSession{}, err
	}
	var s TrainingSession
	err := c.do(ctx, call{method: http.MethodPost, path: userActionPath(id, "sessions"), in: req, out: &s})
	return s, err
}

// Sessions lists the user's training sessions.
func (c *Client) Sessions(ctx context.Context, id int64) ([]TrainingSession, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	var out []TrainingSession
	err := c.do(ctx, call{method: http.MethodGet, path: userActionPath(id, "sessions"), out: &out, list: true})
	return out, err
}
