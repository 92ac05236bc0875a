package room

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateName     = errors.New("room name already exists")
	ErrNotFound          = errors.New("room not found")
	ErrInvalidCredential = errors.New("invalid room password")
)
