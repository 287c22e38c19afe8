// Package services defines the business logic for notifications, keywords,
// and statistics. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

var (
	// ErrNotificationNotFound indicates that the requested notification does
	// not exist.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrEmptyMessage is returned when a manual record request carries no
	// message text.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrEmptyKeyword is returned when an add or remove request carries no
	// keyword after trimming.
	ErrEmptyKeyword = errors.New("keyword is empty")

	// ErrEmptyQuery is returned when a search request carries no query text.
	ErrEmptyQuery = errors.New("search query is empty")
)
