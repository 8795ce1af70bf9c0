// Package password хеширует и проверяет пароли администраторов через bcrypt.
package password

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// GetHash возвращает bcrypt-хэш пароля для хранения в таблице admins.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt-хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// CompareDummy тратит на проверку столько же времени, сколько CompareHash,
// но всегда завершается ошибкой. Вызывается, когда аккаунт не найден,
// чтобы время ответа логина не выдавало существование email.
func CompareDummy(externalPassword string) error {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("skiniq-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(externalPassword))
	return bcrypt.ErrMismatchedHashAndPassword
}
