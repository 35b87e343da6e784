package domain

import (
	"strings"
	"unicode/utf8"
)

type Level struct {
	ID   int64
	Name string
}

const MaxLevelNameLen = 100

func ValidateName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	return utf8.RuneCountInString(name) <= MaxLevelNameLen
}
