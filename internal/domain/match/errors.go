package match

import "errors"

// ErrExternalIDConflict is returned when another row already owns the external match id.
var ErrExternalIDConflict = errors.New("external match id already assigned")
