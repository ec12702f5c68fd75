package tags

import "errors"

// ErrTagNotFound reports a dispatch against a name with no registration.
var ErrTagNotFound = errors.New("tags: tag not found")
