// Package refcode генерирует реферальные коды пользователей.
// Код выдаётся один раз при регистрации и после сохранения не меняется,
// уникальность гарантируется ограничением базы данных.
package refcode

import (
	"crypto/rand"
	"fmt"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Length длина реферального кода.
	Length = 8
)

// Generate возвращает случайный код из Length символов A-Z0-9.
func Generate() (string, error) {
	const op = "refcode.Generate"
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
