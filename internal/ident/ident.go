// Package ident derives C and symbol-file identifiers from human names.
package ident

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrEmptyIdentifier = errors.New("name yields an empty identifier")

func words(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

func fix(id, name string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyIdentifier, name)
	}
	if r, _ := utf8.DecodeRuneInString(id); unicode.IsDigit(r) {
		id = "_" + id
	}
	return id, nil
}

// Upper collapses name into UpperCamelCase: "Group Name" -> "GroupName".
// Letters after the first of each word keep their case.
func Upper(name string) (string, error) {
	var b strings.Builder
	for _, w := range words(name) {
		b.WriteString(upperFirst(w))
	}
	return fix(b.String(), name)
}

// Lower collapses name into lowerCamelCase: "Parameter A" -> "parameterA".
func Lower(name string) (string, error) {
	id, err := Upper(name)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(id, "_") {
		return id, nil
	}
	return lowerFirst(id), nil
}

func StructTag(name string) (string, error) { return suffixed(name, "_s") }

func EnumTag(name string) (string, error) { return suffixed(name, "_e") }

func Typedef(name string) (string, error) { return suffixed(name, "_t") }

func suffixed(name, suffix string) (string, error) {
	id, err := Upper(name)
	if err != nil {
		return "", err
	}
	return id + suffix, nil
}
