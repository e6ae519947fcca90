package iopump

import "errors"

// ErrClosed is returned by Submit/Enqueue once the pump has stopped.
var ErrClosed = errors.New("iopump: closed")

// ErrBackpressure is returned by Enqueue when the outbound backlog is at
// or above the configured high water mark.
var ErrBackpressure = errors.New("iopump: backpressure")
