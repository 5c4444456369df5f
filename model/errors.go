package model

import "errors"

var (
	ErrEmptyMessage         = errors.New("message is empty")
	ErrGenerationInProgress = errors.New("a response is already being generated")
	ErrNothingToRegenerate  = errors.New("no user message to regenerate from")
)
