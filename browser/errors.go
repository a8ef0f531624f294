package browser

import "errors"

// ErrNoButton is returned by ClickButton when no visible button
// matches any of the requested labels.
var ErrNoButton = errors.New("no matching button")

// ErrControlNotFound is returned by action methods when the control ID
// no longer resolves, typically after a navigation invalidated the
// snapshot.
var ErrControlNotFound = errors.New("control not found")
