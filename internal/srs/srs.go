// Package srs implements the interval scheduling used to space out card
// reviews. A correct answer doubles the review interval with each cumulative
// correct answer, up to a cap; a miss schedules the card for tomorrow without
// touching the correct-answer count.
package srs

import "time"

const (
	// MaxIntervalDays is the longest a card can be pushed out, no matter
	// how many times it has been answered correctly.
	MaxIntervalDays = 30
	// failure always reschedules for the next day.
	failureIntervalDays = 1
	// exponent cap; 2^5 = 32 gets clamped to MaxIntervalDays anyway.
	doublingCap = 5
)

// Record is one user's scheduling state for a single card. The zero value
// is a card that has never been reviewed.
type Record struct {
	CorrectAnswers int       `json:"correct_answers"`
	TotalAttempts  int       `json:"total_attempts"`
	LastReviewed   time.Time `json:"last_reviewed,omitzero"`
	NextReview     time.Time `json:"next_review,omitzero"`
}

// Reviewed reports whether this record has ever been through a review.
func (r Record) Reviewed() bool {
	return r.TotalAttempts > 0
}

// IntervalDays computes the number of days until the next review, given the
// cumulative correct-answer count after the current answer has been applied.
func IntervalDays(correctAnswers int, correct bool) int {
	if !correct {
		return failureIntervalDays
	}
	exp := correctAnswers
	if exp > doublingCap {
		exp = doublingCap
	}
	interval := 1 << exp
	if interval > MaxIntervalDays {
		interval = MaxIntervalDays
	}
	return interval
}

// Advance applies a single answer to a record and returns the updated record.
// It is a pure function: now must be injected by the caller, and the input
// record is not modified.
func Advance(rec Record, correct bool, now time.Time) Record {
	rec.TotalAttempts++
	if correct {
		rec.CorrectAnswers++
	}
	rec.LastReviewed = now
	rec.NextReview = now.AddDate(0, 0, IntervalDays(rec.CorrectAnswers, correct))
	return rec
}
