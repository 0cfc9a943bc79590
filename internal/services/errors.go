package services

import "errors"

var (
	// ErrPageNotFound covers missing topics, subtopics, measures and
	// versions looked up through the public service API.
	ErrPageNotFound = errors.New("page not found")
	// ErrDimensionNotFound is returned for dimension lookups by id/guid.
	ErrDimensionNotFound = errors.New("dimension not found")
	// ErrClassificationNotFound is returned by registry lookups.
	ErrClassificationNotFound = errors.New("classification not found")
	// ErrDuplicateClassification signals a (family, title) collision.
	ErrDuplicateClassification = errors.New("classification already exists")
	// ErrClassificationInUse blocks deletion while any dimension link still
	// references the classification.
	ErrClassificationInUse = errors.New("classification is referenced by dimension links")
	// ErrUpdateAlreadyExists signals a duplicate target version number.
	ErrUpdateAlreadyExists = errors.New("a version with this number already exists")
	// ErrStaleUpdate is a concurrent-edit conflict detected by the
	// version-counter heuristic; callers should offer reload-and-retry.
	ErrStaleUpdate = errors.New("measure version was updated by someone else")
	// ErrDuplicateEmail signals a case-insensitive user email collision.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrCouldNotClassify means no registered classification matches the
	// supplied ethnicity breakdown; callers fall back to manual selection.
	ErrCouldNotClassify = errors.New("could not confidently classify ethnicity breakdown")
)
