package domain

import "errors"

var (
	// ErrNotFound reports an unknown device id.
	ErrNotFound = errors.New("device not found")

	// ErrValidation reports missing required fields on device creation.
	ErrValidation = errors.New("missing required fields")

	// ErrRecognition reports that no usable input was heard within the
	// listen window.
	ErrRecognition = errors.New("speech not recognized")
)
