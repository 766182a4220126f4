// Package notifications delivers push notifications about run outcomes and
// camera coverage gaps via ntfy.
//
// The service is optional: without a configured topic every notification is a
// no-op, so callers never need to branch on whether notifications are enabled.
package notifications
