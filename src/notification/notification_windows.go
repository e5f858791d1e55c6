//go:build windows

package notification

import (
	"log"

	"golang.org/x/sys/windows"
)

// ShowBlockingError displays a modal error dialog and returns after the user
// dismisses it.
func ShowBlockingError(title, message string) {
	message = trimMessage(message)
	log.Printf("%s: %s", title, message)

	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return
	}
	msgPtr, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return
	}
	if _, err := windows.MessageBox(0, msgPtr, titlePtr, windows.MB_OK|windows.MB_ICONERROR|windows.MB_SYSTEMMODAL); err != nil {
		log.Printf("Notification: MessageBox failed: %v", err)
	}
}
