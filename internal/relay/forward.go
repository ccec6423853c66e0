package relay

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

const forwardBufferSize = 4096

// isClosed reports whether err means the other end of a channel went away.
func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, unix.EPIPE)
}

func writeLine(w io.Writer, line string) error {
	_, err := io.WriteString(w, line+"\n")
	return err
}

// copyOutput copies a subprocess's output to the console until it closes.
func (r *Relay) copyOutput(src io.Reader) {
	if _, err := io.Copy(r.console, src); err != nil && !isClosed(err) {
		r.log.Debug("output copy ended", "error", err)
	}
}

// forwardInput copies raw local input to dst until local input ends, dst
// rejects a write, or peerDone is closed. A peer going away is not an
// error.
//
// When peerDone fires first the reading goroutine stays blocked in Read
// until the local input yields; it exits on the next read.
func (r *Relay) forwardInput(dst io.Writer, peerDone <-chan struct{}) (EndReason, error) {
	errCh := make(chan error, 1)
	go func() {
		buf := make([]byte, forwardBufferSize)
		for {
			n, err := r.in.Read(buf)
			if n > 0 {
				if _, werr := dst.Write(buf[:n]); werr != nil {
					errCh <- werr
					return
				}
			}
			if err != nil {
				errCh <- err
				return
			}
		}
	}()

	select {
	case err := <-errCh:
		switch {
		case errors.Is(err, io.EOF):
			return EndReasonInputClosed, nil
		case isClosed(err):
			return EndReasonChannelClosed, nil
		default:
			return EndReasonError, err
		}
	case <-peerDone:
		return EndReasonChannelClosed, nil
	}
}
