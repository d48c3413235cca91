package store

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrSlotTaken  = errors.New("slot already taken")
	ErrEmailTaken = errors.New("email already registered")
)
