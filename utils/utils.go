package utils

import (
	"strings"
	"unicode"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 14

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Slugify приводит имя к виду, пригодному для ключа объекта.
func Slugify(name string) string {
	if s := slug.Make(name); s != "" {
		return s
	}
	return "unnamed"
}

// QuoteIfSpaced wraps names containing whitespace in double quotes so they can
// be pasted back into a command.
func QuoteIfSpaced(name string) string {
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return `"` + name + `"`
	}
	return name
}
