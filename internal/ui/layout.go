package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutCategoryWidth is the minimum width to show the category column.
	LayoutCategoryWidth = 110
)

const (
	// ActivityBufferLimit is the maximum number of activity lines kept.
	ActivityBufferLimit = 2000

	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = 500 * time.Millisecond

	// NoticeTTL is how long a status notice stays in the header.
	NoticeTTL = 6 * time.Second

	// CommandTimeout bounds one remote write issued from the UI.
	CommandTimeout = 10 * time.Second

	// PaymentTimeout bounds a checkout, including the wait for the server.
	PaymentTimeout = 2 * time.Minute
)
