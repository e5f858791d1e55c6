//go:build !windows

package notification

import "log"

// ShowBlockingError logs the error on platforms without a native dialog.
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, trimMessage(message))
}
