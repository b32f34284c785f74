package main

import "errors"

var (
	// ErrMalformedField is returned when a metadata, tempo or #NOTES field
	// is missing a delimiter or holds a value that can't be parsed.
	ErrMalformedField = errors.New("malformed field")

	// ErrNonUniformMeasure is returned when a measure's line count does not
	// divide the 192 rows of a measure, or its rows differ in width.
	ErrNonUniformMeasure = errors.New("non-uniform measure")

	// ErrEmptyDifficulty is returned when writing a difficulty without notes
	ErrEmptyDifficulty = errors.New("difficulty has no notes")

	// ErrUnrepresentableBeat is returned when a note's beat is negative or
	// falls between two rows of the 1/48 beat grid, so no measure can hold it.
	ErrUnrepresentableBeat = errors.New("beat does not land on a 1/48 row")

	// ErrLaneOutOfRange is returned when a note's lane is outside the
	// difficulty's row width.
	ErrLaneOutOfRange = errors.New("lane out of range")
)
