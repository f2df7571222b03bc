// Package services содержит общие ошибки бизнес-логики. Сами сервисы
// лежат во вложенных пакетах.
package services

import "errors"

var (
	// ErrForbidden действие запрещено для этого пользователя.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput входные данные не прошли проверку бизнес-правил.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable объект существует, но недоступен для операции.
	ErrUnavailable = errors.New("unavailable")
)
