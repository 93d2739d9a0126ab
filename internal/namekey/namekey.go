// Package namekey derives the comparison keys used to match sender names
// against aliases and tenant names.
package namekey

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
)

// Normalize case-folds name, transliterates it to ASCII and collapses every
// run of punctuation or whitespace into a single '-'.
//
//	Normalize("Tony  STARK!") == "tony-stark"
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	// cases.Caser is stateful, so one per call
	return slug.Make(cases.Fold().String(name))
}

// Tokens splits a normalized key into its words.
func Tokens(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, "-")
}
