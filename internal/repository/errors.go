package repository

import "errors"

// Errors returned by the in-memory stores
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("record already recorded")
	ErrInvalidInput = errors.New("invalid record")
)
