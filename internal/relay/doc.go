// Package relay runs an interactive session against a listener subprocess
// such as nc.
//
// The session starts in line mode: the operator's input is read one line at
// a time and forwarded to the listener, while the listener's output is
// copied to the display for the whole session. Lines starting with ':' are
// commands:
//
//   - :upgrade asks the remote shell to spawn a pty and switches the local
//     terminal to raw mode; from then on every byte is forwarded and
//     commands are no longer recognised.
//   - :socat serves the relay binary from a one-shot file server, starts a
//     local relay subprocess on the listen port + 1, tells the remote shell
//     to fetch the binary and connect back, and forwards raw bytes between
//     the terminal and the relay subprocess.
//   - :quit closes the listener's input and ends the session.
//
// Raw mode is always restored before a stage returns, whatever the reason
// it ended.
package relay
