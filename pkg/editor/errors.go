package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is returned when the cancel key ends a session.
	ErrCancelled = errors.New("editor: cancelled")
	// ErrStopped is returned when the poll function asks the read loop to
	// stop. It matches ErrCancelled under errors.Is.
	ErrStopped = fmt.Errorf("%w: stopped by poll function", ErrCancelled)
	// ErrSessionDone is returned when input is fed to a finished session.
	ErrSessionDone = errors.New("editor: session is done")
	// ErrSessionActive is returned by Begin while another session is open.
	ErrSessionActive = errors.New("editor: a session is already active")
)
