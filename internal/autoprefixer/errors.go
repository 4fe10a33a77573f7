package autoprefixer

import "errors"

// ErrNoWorkspace is returned by Activate without a workspace.
var ErrNoWorkspace = errors.New("autoprefixer: no workspace")
