package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Service status constants
const (
	ServiceStatusActive   = "active"
	ServiceStatusInactive = "inactive"
)

// WeekdaySet is a comma separated list of lowercase weekday tokens
// ("monday,...,sunday") stored as text.
type WeekdaySet []string

func (w WeekdaySet) Value() (driver.Value, error) {
	return strings.Join(w, ","), nil
}

func (w *WeekdaySet) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*w = nil
		return nil
	default:
		return fmt.Errorf("unsupported weekday set type %T", src)
	}
	if s == "" {
		*w = nil
		return nil
	}
	*w = strings.Split(s, ",")
	return nil
}

// Contains reports whether the set includes the given lowercase weekday token.
func (w WeekdaySet) Contains(day string) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// Service is a catalog entry: a bookable category offering with a base
// hourly rate and a weekly availability template.
type Service struct {
	Base
	Name             string     `json:"name" db:"name"`
	Description      string     `json:"description" db:"description"`
	BaseHourlyRate   float64    `json:"base_hourly_rate" db:"base_hourly_rate"`
	Requirements     JSONMap    `json:"requirements" db:"requirements"`
	AvailableDays    WeekdaySet `json:"available_days" db:"available_days"`
	MinDurationHours float64    `json:"min_duration_hours" db:"min_duration_hours"`
	MaxDurationHours float64    `json:"max_duration_hours" db:"max_duration_hours"`
	Status           string     `json:"status" db:"status"`
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported json type %T", src)
	}
	return json.Unmarshal(b, m)
}

// CreateServiceRequest represents catalog entry creation parameters (admin only)
type CreateServiceRequest struct {
	Name             string   `json:"name" binding:"required"`
	Description      string   `json:"description"`
	BaseHourlyRate   float64  `json:"base_hourly_rate" binding:"required,gt=0"`
	Requirements     JSONMap  `json:"requirements"`
	AvailableDays    []string `json:"available_days" binding:"required,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	MinDurationHours float64  `json:"min_duration_hours" binding:"required,gt=0"`
	MaxDurationHours float64  `json:"max_duration_hours" binding:"required,gtfield=MinDurationHours"`
}

// CalculatePriceRequest represents standalone quote parameters
type CalculatePriceRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
}

// UpdateServiceRequest represents administrative catalog edits
type UpdateServiceRequest struct {
	Name             *string  `json:"name"`
	Description      *string  `json:"description"`
	BaseHourlyRate   *float64 `json:"base_hourly_rate" binding:"omitempty,gt=0"`
	Requirements     JSONMap  `json:"requirements"`
	AvailableDays    []string `json:"available_days" binding:"omitempty,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	MinDurationHours *float64 `json:"min_duration_hours" binding:"omitempty,gt=0"`
	MaxDurationHours *float64 `json:"max_duration_hours" binding:"omitempty,gt=0"`
	Status           *string  `json:"status" binding:"omitempty,oneof=active inactive"`
}
