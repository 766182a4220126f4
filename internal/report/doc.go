// Package report audits collaborator output per camera and date. Results are
// persisted to a SQLite database consumed by external dashboards; coverage
// gaps raise notifications.
package report
