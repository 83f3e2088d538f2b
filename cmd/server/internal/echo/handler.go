package echo

import (
	"errors"
	"io"
	"net"

	"github.com/xwirehq/xwire-server/cmd/server/internal/logger"
	"github.com/xwirehq/xwire-server/cmd/server/internal/protocol"
)

// Handler implements core.ConnectionHandler for the framed echo/add
// protocol: read a frame, decode it, compute the response, write it back,
// repeat until the peer goes away.
type Handler struct {
	MaxFrameBytes uint32
}

func NewHandler(maxFrameBytes uint32) *Handler {
	return &Handler{MaxFrameBytes: maxFrameBytes}
}

// HandleConnection processes requests from one connection in arrival order.
// Responses go back on the same connection, one frame per request.
func (h *Handler) HandleConnection(conn net.Conn) {
	for {
		payload, err := protocol.ReadFrame(conn, h.MaxFrameBytes)
		if err != nil {
			h.logReadError(conn, err)
			return
		}

		request, err := protocol.UnmarshalClient(payload)
		if err != nil {
			// A single corrupt frame must not sever an otherwise-healthy
			// session; skip it and keep reading.
			logger.Error("Failed to decode message", "remote_addr", conn.RemoteAddr().String(), "error", err)
			continue
		}

		response := respond(request)

		encoded, err := protocol.MarshalServer(response)
		if err != nil {
			logger.Error("Failed to encode response", "remote_addr", conn.RemoteAddr().String(), "error", err)
			return
		}
		if err := protocol.WriteFrame(conn, encoded); err != nil {
			logger.Error("Error writing to client", "remote_addr", conn.RemoteAddr().String(), "error", err)
			return
		}
	}
}

func (h *Handler) logReadError(conn net.Conn, err error) {
	switch {
	case errors.Is(err, io.EOF):
		logger.Debug("Peer disconnected", "remote_addr", conn.RemoteAddr().String())
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		logger.Debug("Connection dropped mid-frame", "remote_addr", conn.RemoteAddr().String())
	case errors.Is(err, protocol.ErrFrameTooLarge):
		// The stream cannot be resynchronized past a bogus length prefix.
		logger.Error("Closing connection on oversize frame", "remote_addr", conn.RemoteAddr().String(), "error", err)
	default:
		logger.Error("Error reading from client", "remote_addr", conn.RemoteAddr().String(), "error", err)
	}
}

// respond maps each request variant to its response variant. The mapping is
// total and pure: echo is the identity transform, add is wrapping int32
// addition.
func respond(request protocol.ClientMessage) protocol.ServerMessage {
	switch m := request.(type) {
	case *protocol.EchoMessage:
		return m
	case *protocol.AddRequest:
		return &protocol.AddResponse{Result: m.A + m.B}
	default:
		// UnmarshalClient only produces the variants above.
		return nil
	}
}
