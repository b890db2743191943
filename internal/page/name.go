package page

import (
	"regexp"
	"strings"
)

// Reserved pages have their own views and can never be saved.
const (
	RecentChanges = "RecentChanges"
	SearchPages   = "SearchPages"
)

// WikiWord finds WikiWords anywhere in a text run.
var WikiWord = regexp.MustCompile(`[A-Z0-9]\w+(?:[A-Z0-9]\w+)+`)

var validName = regexp.MustCompile(`^[A-Z0-9]\w+(?:[A-Z0-9]\w+)+$`)

// ValidName reports whether name is a WikiWord as a whole.
func ValidName(name string) bool {
	return validName.MatchString(name)
}

// CleanName strips every underscore; Main_Page and MainPage are the same page.
func CleanName(name string) string {
	return strings.ReplaceAll(name, "_", "")
}

func IsReserved(name string) bool {
	switch CleanName(name) {
	case RecentChanges, SearchPages:
		return true
	}
	return false
}
