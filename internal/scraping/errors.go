package scraping

import "errors"

var (
	// ErrFetchFailed is returned once every attempt of a request has failed.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrNoProjectData is returned when the projects page lacks the embedded
	// data block. Nothing can be scraped without it.
	ErrNoProjectData = errors.New("project data block not found")
)
