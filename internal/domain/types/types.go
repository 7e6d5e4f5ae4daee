// Package types contains read shapes shared by the HTTP adapters.
package types

// ScoreRange is the displayed prediction window.
type ScoreRange struct {
	Lower int `json:"lower_limit"`
	Upper int `json:"upper_limit"`
}

// ErrorBody mirrors the {"detail": ...} error payload.
type ErrorBody struct {
	Detail string `json:"detail"`
}
