// Package storage содержит общие ошибки слоя хранения.
package storage

import "errors"

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrConflict запись в состоянии, не допускающем операцию.
	ErrConflict = errors.New("conflict")
)
