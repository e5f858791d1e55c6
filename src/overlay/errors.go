package overlay

import "errors"

var errWindowClosed = errors.New("window closed")
