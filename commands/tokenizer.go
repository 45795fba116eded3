package commands

import (
	"errors"
	"strings"
	"unicode"
)

// CommandPrefix is optional in front of a command name.
const CommandPrefix = "!"

var ErrUnterminatedQuote = errors.New("unterminated quote in command")

// Tokenize разбивает строку на аргументы по пробелам. Двойные кавычки
// объединяют слова в один аргумент; "" дает пустой аргумент.
func Tokenize(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, CommandPrefix)

	var (
		tokens  []string
		current strings.Builder
		inQuote bool
		started bool
	)
	flush := func() {
		if started {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		started = false
	}

	for _, r := range text {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	flush()
	return tokens, nil
}
