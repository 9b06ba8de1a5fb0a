package domain

import "errors"

// Process-level error taxonomy (§7). Init and capture-loss errors are
// fatal; the rest are handled per-frame and never terminate the loop.
var (
	ErrFatalInit     = errors.New("wifitify: fatal initialization error")
	ErrCaptureLost   = errors.New("wifitify: capture channel disconnected")
	ErrFrameDecode   = errors.New("wifitify: frame decode error")
	ErrUnknownChannel = errors.New("wifitify: radiotap frequency not in channel table")
	ErrTransientDb   = errors.New("wifitify: transient database error")
	ErrPersistentDb  = errors.New("wifitify: persistent database error")
)
