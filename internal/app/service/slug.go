package service

import "math/rand/v2"

const slugAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultSlugLength matches the width of generated (non-custom) slugs.
const DefaultSlugLength = 7

// GenerateSlug returns a random identifier of n characters drawn uniformly
// from the 62-character alphanumeric alphabet. Output carries no uniqueness
// guarantee; the registry enforces that against the store. Slugs are not a
// security boundary, so a plain pseudorandom source is sufficient.
func GenerateSlug(n int) string {
	if n <= 0 {
		n = DefaultSlugLength
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = slugAlphabet[rand.IntN(len(slugAlphabet))]
	}
	return string(b)
}
