package domain

import "errors"

// ErrViewNotFound is returned when a saved view id does not exist or is
// outside the caller's visibility scope. The two cases are deliberately
// indistinguishable so lookups do not leak other users' private views.
var ErrViewNotFound = errors.New("saved view not found")

// ErrOwnershipViolation is returned when a write is attempted on a view the
// caller does not own. Sharing grants read and apply access only.
var ErrOwnershipViolation = errors.New("saved view is not owned by caller")
