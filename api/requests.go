package api

import (
	"strings"
	"unicode/utf8"
)

// Default amounts applied when a request leaves Amount at zero.
const (
	DefaultTrainAmount = 10
	DefaultRestAmount  = 5
)

// Validator is implemented by request bodies checked before dispatch.
type Validator interface {
	Validate() error
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &ValidationError{Field: field, Reason: "must not be blank"}
	}
	return nil
}

func length(field, v string, lo, hi int) error {
	if err := required(field, v); err != nil {
		return err
	}
	n := utf8.RuneCountInString(v)
	switch {
	case n < lo:
		return &ValidationError{Field: field, Reason: "too short"}
	case hi > 0 && n > hi:
		return &ValidationError{Field: field, Reason: "too long"}
	}
	return nil
}

func password(v string) error { return length("password", v, 8, 0) }

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	if err := required("username", r.Username); err != nil {
		return err
	}
	return required("password", r.Password)
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	if err := length("name", r.Name, 3, 50); err != nil {
		return err
	}
	if err := length("username", r.Username, 4, 20); err != nil {
		return err
	}
	return password(r.Password)
}

// TrainRequest is the body of POST /api/users/{id}/train.
type TrainRequest struct {
	Stat   Stat `json:"stat"`
	Amount int  `json:"amount"`
}

// WithDefaults fills Amount when it is zero.
func (r TrainRequest) WithDefaults() TrainRequest {
	if r.Amount == 0 {
		r.Amount = DefaultTrainAmount
	}
	return r
}

func (r TrainRequest) Validate() error {
	if !r.Stat.Valid() {
		return &ValidationError{Field: "stat", Reason: "must be STRENGTH, ENDURANCE or FLEXIBILITY"}
	}
	if r.Amount < 1 {
		return &ValidationError{Field: "amount", Reason: "must be a positive value"}
	}
	return nil
}

// RestRequest is the body of POST /api/users/{id}/rest.
type RestRequest struct {
	Amount int `json:"amount"`
}

// WithDefaults fills Amount when it is zero.
func (r RestRequest) WithDefaults() RestRequest {
	if r.Amount == 0 {
		r.Amount = DefaultRestAmount
	}
	return r
}

func (r RestRequest) Validate() error {
	if r.Amount < 1 {
		return &ValidationError{Field: "amount", Reason: "must be a positive value"}
	}
	return nil
}

// PurchaseRequest is the body of POST /api/users/{id}/purchase.
type PurchaseRequest struct {
	AccessoryName string `json:"accessoryName"`
}

func (r PurchaseRequest) Validate() error {
	return required("accessoryName", r.AccessoryName)
}

// SessionRequest is the body of POST /api/users/{id}/sessions.
type SessionRequest struct {
	Description string `json:"description"`
}

func (r SessionRequest) Validate() error {
	return required("description", r.Description)
}

// ExerciseRequest is the body of exercise create and update.
type ExerciseRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Category          string `json:"category,omitempty"`
	StrengthImpact    int    `json:"strengthImpact"`
	EnduranceImpact   int    `json:"enduranceImpact"`
	FlexibilityImpact int    `json:"flexibilityImpact"`
}

func (r ExerciseRequest) Validate() error {
	if err := required("name", r.Name); err != nil {
		return err
	}
	impacts := []struct {
		field string
		v     int
	}{
		{"strengthImpact", r.StrengthImpact},
		{"enduranceImpact", r.EnduranceImpact},
		{"flexibilityImpact", r.FlexibilityImpact},
	}
	for _, im := range impacts {
		if im.v < 0 {
			return &ValidationError{Field: im.field, Reason: "must not be negative"}
		}
	}
	return nil
}

// RoutineRequest is the body of routine create and update. Exercises holds
// exercise ids.
type RoutineRequest struct {
	Name      string  `json:"name"`
	Exercises []int64 `json:"exercises"`
}

func (r RoutineRequest) Validate() error {
	if err := required("name", r.Name); err != nil {
		return err
	}
	if len(r.Exercises) == 0 {
		return &ValidationError{Field: "exercises", Reason: "must list at least one exercise"}
	}
	for _, id := range r.Exercises {
		if id <= 0 {
			return &ValidationError{Field: "exercises", Reason: "ids must be positive"}
		}
	}
	return nil
}

// CreateUserRequest is the body of POST /api/admin/users.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

func (r CreateUserRequest) Validate() error {
	if err := (RegisterRequest{Name: r.Name, Username: r.Username, Password: r.Password}).Validate(); err != nil {
		return err
	}
	if r.Role != "" && !r.Role.Valid() {
		return &ValidationError{Field: "role", Reason: "must be USER or ADMIN"}
	}
	return nil
}

// UpdateUserRequest is the body of PUT /api/admin/users/{id}. Empty fields
// are left unchanged by the server.
type UpdateUserRequest struct {
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

func (r UpdateUserRequest) Validate() error {
	if r.Name == "" && r.Username == "" && r.Role == "" {
		return &ValidationError{Field: "user", Reason: "nothing to update"}
	}
	if r.Name != "" {
		if err := length("name", r.Name, 3, 50); err != nil {
			return err
		}
	}
	if r.Username != "" {
		if err := length("username", r.Username, 4, 20); err != nil {
			return err
		}
	}
	if r.Role != "" && !r.Role.Valid() {
		return &ValidationError{Field: "role", Reason: "must be USER or ADMIN"}
	}
	return nil
}

// RoleRequest is the body of PUT /api/admin/users/{id}/role.
type RoleRequest struct {
	Role Role `json:"role"`
}

func (r RoleRequest) Validate() error {
	if !r.Role.Valid() {
		return &ValidationError{Field: "role", Reason: "must be USER or ADMIN"}
	}
	return nil
}

// PasswordRequest is the body of PUT /api/admin/users/{id}/password.
type PasswordRequest struct {
	Password string `json:"password"`
}

func (r PasswordRequest) Validate() error { return password(r.Password) }

func validID(id int64) error {
	if id <= 0 {
		return &ValidationError{Field: "id", Reason: "must be positive"}
	}
	return nil
}
