package services

import (
	"errors"

	"alfredoptarigan/resume-parser/internal/repositories"
)

var (
	ErrInvalidFileType    = errors.New("invalid file type")
	ErrFileTooLarge       = errors.New("file too large")
	ErrUnreadableDocument = errors.New("could not read document text")
	ErrInvalidInput       = errors.New("invalid input")
	ErrClerkIDMismatch    = errors.New("clerk ID mismatch")
	ErrSearchUnavailable  = errors.New("profile search is not configured")
	ErrHistoryUnavailable = errors.New("upload history is not configured")

	// ErrDocConverterUnavailable is a server fault, not a client one.
	ErrDocConverterUnavailable = errors.New(".doc text converter unavailable")

	ErrProfileNotFound = repositories.ErrProfileNotFound
)
