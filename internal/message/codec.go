package message

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Core Deterministic Encoding: the same message always produces the same bytes.
var encMode cbor.EncMode

// Unknown fields are ignored so newer daemons can add fields.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("message: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic("message: CBOR decoder initialization failed: " + err.Error())
	}
}

// envelope frames every message on the wire as one CBOR data item.
type envelope struct {
	Kind string          `cbor:"kind"`
	Body cbor.RawMessage `cbor:"body"`
}

// Encoder writes a stream of messages.
type Encoder struct {
	enc *cbor.Encoder
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: encMode.NewEncoder(w)}
}

// Encode writes msg as a single envelope.
func (e *Encoder) Encode(msg Message) error {
	if msg == nil {
		return errors.New("encode message: nil message")
	}
	if _, ok := msg.(Unknown); ok {
		return fmt.Errorf("encode message: unknown kind %q", msg.kind())
	}
	body, err := encMode.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.kind(), err)
	}
	if err := e.enc.Encode(envelope{Kind: msg.kind(), Body: body}); err != nil {
		return fmt.Errorf("encode %s: %w", msg.kind(), err)
	}
	return nil
}

// Decoder reads a stream of messages.
type Decoder struct {
	dec *cbor.Decoder
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: decMode.NewDecoder(r)}
}

// Decode reads the next message. A clean end of stream is reported as
// io.EOF; a stream cut inside a message as io.ErrUnexpectedEOF. Kinds this
// package does not know decode to Unknown.
func (d *Decoder) Decode() (Message, error) {
	var env envelope
	if err := d.dec.Decode(&env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case kindBuildRequest:
		return decodeBody[BuildRequest](env)
	case kindBuildEvent:
		return decodeBody[BuildEvent](env)
	case kindBuildMessage:
		return decodeBody[BuildMessage](env)
	case kindBuildException:
		return decodeBody[BuildException](env)
	default:
		return Unknown{Kind: env.Kind}, nil
	}
}

func decodeBody[T Message](env envelope) (Message, error) {
	var msg T
	if err := decMode.Unmarshal(env.Body, &msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
	}
	return msg, nil
}
