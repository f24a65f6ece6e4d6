// Package lock guards a storage device directory against concurrent mounts
// from separate processes.
package lock

import "errors"

// FileName is the lock file created inside a locked directory.
const FileName = "LOCK"

var ErrLocked = errors.New("device already in use by another mount")
