// Package gopher implements the wire side of the Gopher protocol (RFC 1436 subset).
//
// # Exchange
//
// A client connects, sends one selector line terminated by CRLF and receives
// either a text body or a menu, always followed by a lone "." line. The server
// then closes the connection. There is exactly one request per connection.
//
// # Read Side
//
// Protocol.Read tokenizes the selector line with a four state machine
// (idle, path, extra, newline). Bytes before the first TAB or SPACE form the
// selector path; bytes after it up to CR form the optional search "extra".
// Each buffer is bounded by the configured maximum line length.
//
// # Write Side
//
// Protocol.Write renders a Selected value:
//
//	Error       3<message>\r\n
//	Text        <body>\r\n
//	TextItem    0<desc>\t<path>\t<host>\t<port>\r\n
//	URLItem     h<desc>\tURL:<url>\t<host>\t<port>\r\n
//	InfoItem    i<line>\t\t\t\r\n (one per line of desc)
//	SearchItem  7<desc>\t<path>\t<host>\t<port>\r\n
//
// followed by ".\r\n".
//
// # Thread Safety
//
// A Protocol holds per-connection lexer state and must never be shared between
// connections. ExternalAddr, Path, MenuItem and Selected values are immutable
// once built and may be shared freely.
package gopher
