package juliusprotocol

import (
	"net"
	"strconv"
	"time"
)

// Protocol constants for Julius module mode.
const (
	// RecordTerminator is the line that closes every record sent by the engine.
	RecordTerminator = "."

	// DefaultHost is the engine address used when none is configured.
	DefaultHost = "localhost"

	// DefaultPort is the TCP port Julius listens on in module mode.
	DefaultPort = 10500

	// DefaultEncoding is the text encoding used on the socket by default.
	DefaultEncoding = "utf-8"

	// ConnectionTimeout is the timeout for establishing connections.
	ConnectionTimeout = 5 * time.Second
)

// Address joins a host and port into a dialable TCP address.
// An empty host falls back to DefaultHost and a non-positive port to DefaultPort.
func Address(host string, port int) string {
	if host == "" {
		host = DefaultHost
	}
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
