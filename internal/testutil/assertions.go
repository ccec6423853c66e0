package testutil

import (
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exchange dials addr, writes request and returns everything the server
// sends before closing the connection.
func Exchange(t *testing.T, addr, request string) string {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, DefaultWait)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(DefaultWait)))

	_, err = io.WriteString(conn, request)
	require.NoError(t, err)

	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(resp)
}

// AssertOKResponse asserts resp is a 200 response carrying body.
func AssertOKResponse(t *testing.T, resp, body string) {
	t.Helper()
	want := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n%s", len(body), body)
	assert.Equal(t, want, resp)
}

// AssertNotFoundResponse asserts resp is the server's 404 response.
func AssertNotFoundResponse(t *testing.T, resp string) {
	t.Helper()
	assert.Equal(t, "HTTP/1.1 404 NOT FOUND\r\nContent-Length: 14\r\n\r\n404 Not Found.", resp)
}
