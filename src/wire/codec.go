package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/mosaicnetworks/lattice/src/block"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
)

const (
	headerSize = 1
	countSize  = 2

	// EntrySize is the encoded size of one entry.
	EntrySize = keys.PublicKeySize + 8 + 8 + keys.SignatureSize

	// MaxBlockEntries bounds the number of entries in a block so that a
	// PublishReq always fits in a single UDP datagram.
	MaxBlockEntries = 256

	// MaxMessageSize is the size of the largest valid message.
	MaxMessageSize = headerSize + countSize + MaxBlockEntries*EntrySize
)

// Encode serializes a message, header included.
func Encode(msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case *KeepaliveReq, *KeepaliveAck, *PublishAck, *PublishNak:
		return []byte{byte(m.Type())}, nil
	case *PublishReq:
		if m == nil || m.Block == nil {
			return nil, fmt.Errorf("PublishReq without block")
		}
		buf := make([]byte, 0, headerSize+countSize+len(m.Block.Entries)*EntrySize)
		buf = append(buf, byte(TypePublishReq))
		return appendBlock(buf, m.Block)
	default:
		return nil, fmt.Errorf("cannot encode message of type %T", msg)
	}
}

// EncodeBlock serializes a block payload without message header.
func EncodeBlock(b *block.Block) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("nil block")
	}
	return appendBlock(make([]byte, 0, countSize+len(b.Entries)*EntrySize), b)
}

func appendBlock(buf []byte, b *block.Block) ([]byte, error) {
	if len(b.Entries) > MaxBlockEntries {
		return nil, ErrBlockTooLarge
	}

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(b.Entries)))
	for _, e := range b.Entries {
		buf = appendEntry(buf, e)
	}

	return buf, nil
}

// appendEntry writes the account bytes as they are, valid point or not. Only
// the decoder enforces point validity.
func appendEntry(buf []byte, e block.Entry) []byte {
	buf = append(buf, e.Account[:]...)
	buf = binary.BigEndian.AppendUint64(buf, e.Balance)
	buf = binary.BigEndian.AppendUint64(buf, e.Sequence)
	buf = append(buf, e.Signature[:]...)
	return buf
}

// DecodeHeader reads and checks the type tag of a message without decoding
// its payload.
func DecodeHeader(data []byte) (MessageType, error) {
	if len(data) < headerSize {
		return 0, &DecodeError{Kind: Truncated, Offset: 0}
	}
	t := MessageType(data[0])
	if !t.Valid() {
		return t, &DecodeError{Kind: UnknownType, Offset: 0}
	}
	return t, nil
}

// Decode parses a complete message. The whole buffer must be consumed.
func Decode(data []byte) (Message, error) {
	t, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	r := &reader{buf: data, off: headerSize}

	var msg Message
	switch t {
	case TypeKeepaliveReq:
		msg = &KeepaliveReq{}
	case TypeKeepaliveAck:
		msg = &KeepaliveAck{}
	case TypePublishAck:
		msg = &PublishAck{}
	case TypePublishNak:
		msg = &PublishNak{}
	case TypePublishReq:
		b, err := r.block()
		if err != nil {
			return nil, err
		}
		msg = &PublishReq{Block: b}
	}

	if err := r.done(); err != nil {
		return nil, err
	}

	return msg, nil
}

// DecodeBlock parses a block payload as produced by EncodeBlock.
func DecodeBlock(data []byte) (*block.Block, error) {
	r := &reader{buf: data}

	b, err := r.block()
	if err != nil {
		return nil, err
	}

	if err := r.done(); err != nil {
		return nil, err
	}

	return b, nil
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) next(n int) ([]byte, error) {
	if len(r.buf)-r.off < n {
		return nil, &DecodeError{Kind: Truncated, Offset: r.off}
	}
	res := r.buf[r.off : r.off+n]
	r.off += n
	return res, nil
}

func (r *reader) done() error {
	if r.off != len(r.buf) {
		return &DecodeError{Kind: TrailingBytes, Offset: r.off}
	}
	return nil
}

func (r *reader) block() (*block.Block, error) {
	countBytes, err := r.next(countSize)
	if err != nil {
		return nil, err
	}

	count := int(binary.BigEndian.Uint16(countBytes))
	if count > MaxBlockEntries {
		return nil, &DecodeError{Kind: TooManyEntries, Offset: r.off - countSize}
	}

	entries := make([]block.Entry, count)
	for i := range entries {
		if err := r.entry(&entries[i]); err != nil {
			return nil, err
		}
	}

	return &block.Block{Entries: entries}, nil
}

func (r *reader) entry(e *block.Entry) error {
	start := r.off

	data, err := r.next(EntrySize)
	if err != nil {
		return err
	}

	account, err := keys.ParsePublicKey(data[:keys.PublicKeySize])
	if err != nil {
		return &DecodeError{Kind: InvalidPoint, Offset: start, Err: err}
	}
	data = data[keys.PublicKeySize:]

	e.Account = account
	e.Balance = binary.BigEndian.Uint64(data[0:8])
	e.Sequence = binary.BigEndian.Uint64(data[8:16])
	copy(e.Signature[:], data[16:])

	return nil
}
