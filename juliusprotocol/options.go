package juliusprotocol

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Options configures a Client.
type Options struct {
	// AutoConnect opens the connection inside NewClient.
	AutoConnect bool

	// Host is the engine address. Empty means DefaultHost.
	Host string

	// Port is the engine's module port. Zero means DefaultPort.
	Port int

	// Encoding names the text encoding used on the socket, as understood by
	// the WHATWG encoding index ("utf-8", "euc-jp", "shift_jis", ...).
	// Empty means DefaultEncoding.
	Encoding string

	// Logger receives client diagnostics. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultOptions returns options that connect to a local engine on the
// default port as soon as the client is created.
func DefaultOptions() Options {
	return Options{
		AutoConnect: true,
		Host:        DefaultHost,
		Port:        DefaultPort,
		Encoding:    DefaultEncoding,
	}
}

// LookupEncoding resolves an encoding name. UTF-8 resolves to nil, meaning
// the socket bytes are used as they are.
func LookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownEncoding, name)
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return nil, nil
	}
	return enc, nil
}
