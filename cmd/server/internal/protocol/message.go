package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the wire schema. The client and server unions wrap
// exactly one of their variants per message; everything else is a decode
// error.
const (
	fieldEchoMessage = protowire.Number(1) // union: EchoMessage
	fieldAddRequest  = protowire.Number(2) // client union: AddRequest
	fieldAddResponse = protowire.Number(2) // server union: AddResponse

	fieldEchoContent = protowire.Number(1)
	fieldAddA        = protowire.Number(1)
	fieldAddB        = protowire.Number(2)
	fieldAddResult   = protowire.Number(1)
)

// ClientMessage is a request variant sent by a client.
type ClientMessage interface {
	isClientMessage()
}

// ServerMessage is a response variant returned by the server.
type ServerMessage interface {
	isServerMessage()
}

// EchoMessage carries arbitrary text and is echoed back verbatim.
// It appears in both unions.
type EchoMessage struct {
	Content string
}

// AddRequest asks the server to add two 32-bit integers.
type AddRequest struct {
	A int32
	B int32
}

// AddResponse carries the sum for an AddRequest. Overflow wraps with
// two's-complement semantics, matching the declared field width.
type AddResponse struct {
	Result int32
}

func (*EchoMessage) isClientMessage() {}
func (*EchoMessage) isServerMessage() {}
func (*AddRequest) isClientMessage()  {}
func (*AddResponse) isServerMessage() {}

// MarshalClient encodes a request variant into its union envelope.
func MarshalClient(msg ClientMessage) ([]byte, error) {
	var b []byte
	switch m := msg.(type) {
	case *EchoMessage:
		b = protowire.AppendTag(b, fieldEchoMessage, protowire.BytesType)
		b = protowire.AppendBytes(b, appendEchoMessage(nil, m))
	case *AddRequest:
		b = protowire.AppendTag(b, fieldAddRequest, protowire.BytesType)
		b = protowire.AppendBytes(b, appendAddRequest(nil, m))
	default:
		return nil, fmt.Errorf("unsupported client message type %T", msg)
	}
	return b, nil
}

// MarshalServer encodes a response variant into its union envelope.
func MarshalServer(msg ServerMessage) ([]byte, error) {
	var b []byte
	switch m := msg.(type) {
	case *EchoMessage:
		b = protowire.AppendTag(b, fieldEchoMessage, protowire.BytesType)
		b = protowire.AppendBytes(b, appendEchoMessage(nil, m))
	case *AddResponse:
		b = protowire.AppendTag(b, fieldAddResponse, protowire.BytesType)
		b = protowire.AppendBytes(b, appendAddResponse(nil, m))
	default:
		return nil, fmt.Errorf("unsupported server message type %T", msg)
	}
	return b, nil
}

// UnmarshalClient decodes a request union. An empty buffer, an unknown
// variant number, or a truncated payload is a decode error.
func UnmarshalClient(b []byte) (ClientMessage, error) {
	var msg ClientMessage
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("malformed client message tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.BytesType {
			return nil, fmt.Errorf("unexpected wire type %v for client message field %d", typ, num)
		}
		body, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("truncated client message field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		var err error
		switch num {
		case fieldEchoMessage:
			msg, err = parseEchoMessage(body)
		case fieldAddRequest:
			msg, err = parseAddRequest(body)
		default:
			return nil, fmt.Errorf("unknown client message variant %d", num)
		}
		if err != nil {
			return nil, err
		}
	}
	if msg == nil {
		return nil, fmt.Errorf("client message carries no variant")
	}
	return msg, nil
}

// UnmarshalServer decodes a response union.
func UnmarshalServer(b []byte) (ServerMessage, error) {
	var msg ServerMessage
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("malformed server message tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.BytesType {
			return nil, fmt.Errorf("unexpected wire type %v for server message field %d", typ, num)
		}
		body, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("truncated server message field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		var err error
		switch num {
		case fieldEchoMessage:
			msg, err = parseEchoMessage(body)
		case fieldAddResponse:
			msg, err = parseAddResponse(body)
		default:
			return nil, fmt.Errorf("unknown server message variant %d", num)
		}
		if err != nil {
			return nil, err
		}
	}
	if msg == nil {
		return nil, fmt.Errorf("server message carries no variant")
	}
	return msg, nil
}

func appendEchoMessage(b []byte, m *EchoMessage) []byte {
	if m.Content != "" {
		b = protowire.AppendTag(b, fieldEchoContent, protowire.BytesType)
		b = protowire.AppendString(b, m.Content)
	}
	return b
}

func appendAddRequest(b []byte, m *AddRequest) []byte {
	if m.A != 0 {
		b = protowire.AppendTag(b, fieldAddA, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.A)))
	}
	if m.B != 0 {
		b = protowire.AppendTag(b, fieldAddB, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.B)))
	}
	return b
}

func appendAddResponse(b []byte, m *AddResponse) []byte {
	if m.Result != 0 {
		b = protowire.AppendTag(b, fieldAddResult, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Result)))
	}
	return b
}

func parseEchoMessage(b []byte) (*EchoMessage, error) {
	m := &EchoMessage{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("malformed echo message: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if num == fieldEchoContent && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, fmt.Errorf("malformed echo content: %w", protowire.ParseError(n))
			}
			m.Content = v
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, fmt.Errorf("malformed echo message field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return m, nil
}

func parseAddRequest(b []byte) (*AddRequest, error) {
	m := &AddRequest{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("malformed add request: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.VarintType && (num == fieldAddA || num == fieldAddB) {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("malformed add request field %d: %w", num, protowire.ParseError(n))
			}
			if num == fieldAddA {
				m.A = int32(v)
			} else {
				m.B = int32(v)
			}
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, fmt.Errorf("malformed add request field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return m, nil
}

func parseAddResponse(b []byte) (*AddResponse, error) {
	m := &AddResponse{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("malformed add response: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if num == fieldAddResult && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("malformed add result: %w", protowire.ParseError(n))
			}
			m.Result = int32(v)
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, fmt.Errorf("malformed add response field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return m, nil
}
