package domain

import "time"

type DeviceKind string

const (
	DeviceKindFan  DeviceKind = "fan"
	DeviceKindBulb DeviceKind = "bulb"
)

// Device is a controllable (simulated) home device. Speed only exists for
// fans; bulbs carry a nil Speed and serialize without the field.
type Device struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        DeviceKind `json:"type"`
	Room        string     `json:"room"`
	IsOn        bool       `json:"isOn"`
	Speed       *int       `json:"speed,omitempty"`
	Color       string     `json:"color"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

func (d Device) IsFan() bool {
	return d.Kind == DeviceKindFan
}

// StatePatch carries a partial state update; nil fields are left untouched.
type StatePatch struct {
	IsOn  *bool   `json:"isOn"`
	Speed *int    `json:"speed"`
	Color *string `json:"color"`
}

const (
	DefaultRoom  = "Unknown"
	DefaultColor = "#FFB800"
)
