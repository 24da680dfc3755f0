package transport

import "errors"

// ErrExecutableNotFound is returned when the Agent CLI binary cannot be
// located on PATH. A path taken from the resolver's override environment
// variable is used as given and is not checked here.
var ErrExecutableNotFound = errors.New("agent executable not found")

// ErrSpawnFailed is returned when the resolved executable exists but the
// process could not be started (permissions, exec format, resource limits).
var ErrSpawnFailed = errors.New("agent process failed to start")

// ErrPeerExited is returned by Lines once the subprocess has exited and all
// buffered stdout has been drained.
var ErrPeerExited = errors.New("agent process exited")

// ErrNotWritable is returned by Write when called before Connect or after
// Close, and by Lines when called before Connect.
var ErrNotWritable = errors.New("transport is not connected")
