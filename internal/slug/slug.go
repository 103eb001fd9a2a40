// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
// Diacritics are stripped so Spanish titles like "Guía de CAC" slug cleanly.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonWord matches anything that isn't a letter, digit, underscore, or hyphen.
	nonWord = regexp.MustCompile(`[^a-z0-9_-]`)
	// whitespace collapses runs of whitespace into a single separator.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)

	// stripMarks decomposes to NFD and removes combining marks,
	// turning "í" into "i" and "ñ" into "n".
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Guía: CAC Sostenible (2026)" → "guia-cac-sostenible-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	if stripped, _, err := transform.String(stripMarks, result); err == nil {
		result = stripped
	}
	result = whitespace.ReplaceAllString(result, "-")
	result = nonWord.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
