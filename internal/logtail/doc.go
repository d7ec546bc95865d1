// Package logtail reads the end of the shopfront log file for the activity
// view.
//
// Read extracts the last N lines with a single pass and a ring buffer of N
// entries, so memory stays bounded however large the file grows. Tail runs
// each line through Parse, which understands both logrus formatters the app
// can be configured with:
//
//	{"timestamp":"2024-05-01T12:00:00Z","severity":"info","message":"payment finished","uid":"u1"}
//	time="2024-05-01T12:00:00Z" level=info msg="payment finished" uid=u1
//
// Lines in neither format are returned as an Entry whose Message is the raw
// line. A missing log file is not an error.
package logtail
