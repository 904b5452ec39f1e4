// Package id generates identifiers for notes, bus contexts and SSE clients.
package id

import (
	"fmt"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// base36 is the alphabet used for note id suffixes.
const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// noteSuffixLen is the number of random characters after the timestamp.
const noteSuffixLen = 9

// Generate creates a prefixed NanoID, e.g. "tab-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NoteID returns "note_<unix-ms>_<9 base36 chars>".
//
// Uniqueness is probabilistic: two notes created in the same millisecond
// collide only if they draw the same 36^9 suffix.
func NoteID(now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(base36, noteSuffixLen)
	if err != nil {
		return "", fmt.Errorf("generate note id: %w", err)
	}
	return "note_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix, nil
}
