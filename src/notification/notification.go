// Package notification reports fatal errors to the user before the process exits.
package notification

import "strings"

const maxMessageLen = 500

// trimMessage keeps dialog text short enough to read at a glance.
func trimMessage(message string) string {
	message = strings.TrimSpace(message)
	if len(message) > maxMessageLen {
		return message[:maxMessageLen] + "..."
	}
	return message
}
