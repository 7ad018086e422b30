package domain

import "errors"

var (
	// ErrValidation - публикация не прошла проверку полей.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound - запись с таким id не существует.
	ErrNotFound = errors.New("not found")
	// ErrConflict - нарушение уникальности (username, email, сохраненный пост).
	ErrConflict = errors.New("conflict")
	// ErrForbidden - у вызывающего нет прав на действие.
	ErrForbidden = errors.New("forbidden")
)
