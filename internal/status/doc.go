// Package status maintains the advisory single-run snapshot consumed by
// external monitoring. Every scheduler transition overwrites the whole file
// atomically; readers tolerate its absence.
package status
