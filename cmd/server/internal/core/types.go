package core

import (
	"net"
)

// ConnectionHandler processes a single accepted connection until the peer
// disconnects or an unrecoverable I/O error occurs. The server owns the
// connection's registration and close; the handler owns everything that
// happens on the wire in between. Handlers for different connections run
// concurrently and must not share mutable state.
type ConnectionHandler interface {
	HandleConnection(conn net.Conn)
}
