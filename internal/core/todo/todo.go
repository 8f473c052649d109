// Package todo defines the todo domain model, its ordering, and the contract
// with the remote store that owns the authoritative copy.
package todo

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTitleLen is the maximum title length in characters.
	MaxTitleLen = 22
	// MinPriority is the lowest priority a confirmed todo can hold.
	MinPriority = 1
	// MaxPriority is the highest priority a todo can hold.
	MaxPriority = 10
	// FallbackPriority is assigned to todos that were only created locally.
	FallbackPriority = 0
)

var (
	// ErrTitleEmpty is returned when a title is blank after trimming.
	ErrTitleEmpty = errors.New("title is required")
	// ErrTitleTooLong is returned when a title exceeds MaxTitleLen characters.
	ErrTitleTooLong = errors.New("title cannot be longer than 22 characters")
)

// Todo is a single task item. Archival is represented by membership in the
// archived set on the remote, not by a field.
type Todo struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Priority  int    `json:"priority"`
	Completed bool   `json:"completed"`
}

// CanRaise reports whether the priority may be increased by one.
func (t Todo) CanRaise() bool {
	return !t.Completed && t.Priority < MaxPriority
}

// CanLower reports whether the priority may be decreased by one.
func (t Todo) CanLower() bool {
	return !t.Completed && t.Priority > MinPriority
}

// NormalizeTitle strips surrounding whitespace. Titles are stored and sent in
// this form.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(title)
}

// ValidateTitle checks a title before any mutation is dispatched. Both rules
// apply to the normalized title, and length is counted in runes.
func ValidateTitle(title string) error {
	title = NormalizeTitle(title)
	if title == "" {
		return ErrTitleEmpty
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	return nil
}
