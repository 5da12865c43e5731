package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MaxStat is the cap for every stat.
const MaxStat = 100

// Role is a user's authorization role.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// Stat is a trainable attribute.
type Stat string

const (
	StatStrength    Stat = "STRENGTH"
	StatEndurance   Stat = "ENDURANCE"
	StatFlexibility Stat = "FLEXIBILITY"
)

// Valid reports whether s is a known stat.
func (s Stat) Valid() bool {
	switch s {
	case StatStrength, StatEndurance, StatFlexibility:
		return true
	}
	return false
}

// User is the user snapshot returned by /api/users/{id}.
type User struct {
	ID                 int64             `json:"id"`
	Name               string            `json:"name"`
	Username           string            `json:"username"`
	Role               Role              `json:"role"`
	Strength           int               `json:"strength"`
	Endurance          int               `json:"endurance"`
	Flexibility        int               `json:"flexibility"`
	AccessoryPurchased bool              `json:"accessoryPurchased"`
	AccessoryName      string            `json:"accessoryName,omitempty"`
	Sessions           []TrainingSession `json:"sessions,omitempty"`
}

// IsAdmin reports whether u has the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// AllStatsMaxed reports whether every stat is at MaxStat.
func (u User) AllStatsMaxed() bool {
	return u.Strength == MaxStat && u.Endurance == MaxStat && u.Flexibility == MaxStat
}

// CanPurchase reports whether u may buy the accessory.
func (u User) CanPurchase() bool {
	return u.AllStatsMaxed() && !u.AccessoryPurchased
}

// Stat returns the value of s.
func (u User) Stat(s Stat) int {
	switch s {
	case StatStrength:
		return u.Strength
	case StatEndurance:
		return u.Endurance
	case StatFlexibility:
		return u.Flexibility
	}
	return 0
}

// WithTraining returns u with s raised by amount, clamped to [0, MaxStat].
// It mirrors the server's arithmetic and is used for optimistic updates.
func (u User) WithTraining(s Stat, amount int) User {
	switch s {
	case StatStrength:
		u.Strength = clampStat(u.Strength + amount)
	case StatEndurance:
		u.Endurance = clampStat(u.Endurance + amount)
	case StatFlexibility:
		u.Flexibility = clampStat(u.Flexibility + amount)
	}
	return u
}

// WithRest returns u with every stat lowered by amount, clamped at zero.
func (u User) WithRest(amount int) User {
	u.Strength = clampStat(u.Strength - amount)
	u.Endurance = clampStat(u.Endurance - amount)
	u.Flexibility = clampStat(u.Flexibility - amount)
	return u
}

func clampStat(v int) int {
	return max(0, min(MaxStat, v))
}

// TrainingSession is one logged activity.
type TrainingSession struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Timestamp   Timestamp `json:"timestamp"`
}

// Timestamp accepts RFC 3339 and zone-less ISO-8601 local date-times, which
// the server emits for session timestamps.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("api: unrecognized timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// Exercise is a catalog exercise.
type Exercise struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Category          string `json:"category,omitempty"`
	StrengthImpact    int    `json:"strengthImpact"`
	EnduranceImpact   int    `json:"enduranceImpact"`
	FlexibilityImpact int    `json:"flexibilityImpact"`
}

// Routine is a named list of exercises owned by the session user.
type Routine struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
}

// Accessory is the cosmetic item bought with maxed stats.
type Accessory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token    string `json:"token"`
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// Message is the body of delete and password-reset responses.
type Message struct {
	Message string `json:"message"`
}
