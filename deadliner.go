package linerpc

import (
	"io"
	"time"
)

// DeadlineReader represents an [io.ReadCloser] that supports setting a
// read deadline, such as a [net.Conn].
type DeadlineReader interface {
	io.ReadCloser
	SetReadDeadline(time.Time) error
}

// DeadlineWriter represents an [io.WriteCloser] that supports setting a
// write deadline, such as a [net.Conn].
type DeadlineWriter interface {
	io.WriteCloser
	SetWriteDeadline(time.Time) error
}
