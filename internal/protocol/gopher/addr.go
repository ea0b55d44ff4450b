package gopher

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrBadAddrFormat is returned when an external address is not "host:port" or "host port".
	ErrBadAddrFormat = errors.New("invalid format, valid formats are 'host.name:1111' or 'host.name 1111'")

	// ErrBadAddrPort is returned when the port of an external address is not a uint16.
	ErrBadAddrPort = errors.New("invalid port")
)

// ExternalAddr is the host and port advertised to clients in menu item lines.
//
// It is usually different from the listen address: a server bound to
// 0.0.0.0:7070 behind a NAT may advertise gopher.example.org:70.
type ExternalAddr struct {
	Host string
	Port uint16
}

// NewExternalAddr returns an ExternalAddr for host and port.
func NewExternalAddr(host string, port uint16) *ExternalAddr {
	return &ExternalAddr{Host: host, Port: port}
}

// ParseExternalAddr parses "host:port" or "host port".
func ParseExternalAddr(s string) (*ExternalAddr, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == ' '
	})
	if len(parts) != 2 || strings.Count(s, ":")+strings.Count(s, " ") != 1 {
		return nil, fmt.Errorf("external address %q: %w", s, ErrBadAddrFormat)
	}

	port, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("external address %q: %w", s, ErrBadAddrPort)
	}

	return NewExternalAddr(parts[0], uint16(port)), nil
}

// String returns the address in "host:port" form.
func (a *ExternalAddr) String() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}
