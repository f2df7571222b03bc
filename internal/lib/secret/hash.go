// Package secret хеширует и проверяет API-ключи сервисных клиентов (бота).
// В конфиге хранится только bcrypt-хеш ключа.
package secret

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch возвращается, если ключ не соответствует хешу.
var ErrMismatch = errors.New("secret mismatch")

// Hash возвращает bcrypt-хеш ключа.
func Hash(key string) (string, error) {
	const op = "secret.Hash"
	if key == "" {
		return "", fmt.Errorf("%s: empty key", op)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Compare сравнивает bcrypt-хеш с переданным ключом.
func Compare(hash, key string) error {
	const op = "secret.Compare"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("%s: %w", op, ErrMismatch)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
