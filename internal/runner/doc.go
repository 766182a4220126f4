// Package runner is the boundary to the external conversion pipeline. The
// scheduler only sees the Collaborator contract: prepare the environment, run
// one date, classify the exit as success, error, or timeout.
package runner
