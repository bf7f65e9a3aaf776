// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
// Text in any script is transliterated to ASCII; anything that still is not a
// lowercase letter or digit becomes a single hyphen.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Separator joins the words of a generated slug.
const Separator = "-"

var (
	// nonAlphanumeric matches runs of anything that isn't a lowercase ASCII letter or digit.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// valid matches hyphen-separated lowercase ASCII words.
	valid = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Héllo, Wörld! 2026" → "hello-world-2026", "Новости" → "novosti"
func Generate(s string) string {
	result := Fold(s)
	result = strings.ToLower(result)
	result = nonAlphanumeric.ReplaceAllString(result, Separator)
	return strings.Trim(result, Separator)
}

// Fold transliterates s to ASCII. Combining marks are stripped first so
// accented letters keep their base letter; Cyrillic, Greek, CJK and other
// scripts are then romanized. Characters with no ASCII rendering, such as
// emoji, are dropped.
func Fold(s string) string {
	// Transformers carry state, so a fresh chain is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return unidecode.Unidecode(s)
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return valid.MatchString(s)
}
