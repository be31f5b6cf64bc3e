package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	magic      = 0x53434853 // "SHCS"
	version    = 1
	headerSize = 32
)

type header struct {
	compression Compression
	checksum    uint32
	rawLen      uint64
	storedLen   uint64
}

func (h header) marshal() []byte {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(b[0:4], magic)
	binary.LittleEndian.PutUint32(b[4:8], version)
	b[8] = byte(h.compression)
	binary.LittleEndian.PutUint32(b[12:16], h.checksum)
	binary.LittleEndian.PutUint64(b[16:24], h.rawLen)
	binary.LittleEndian.PutUint64(b[24:32], h.storedLen)
	return b
}

func readHeader(r io.Reader) (header, error) {
	b := make([]byte, headerSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return header{}, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if m := binary.LittleEndian.Uint32(b[0:4]); m != magic {
		return header{}, fmt.Errorf("%w: invalid magic %x", ErrCorrupt, m)
	}
	if v := binary.LittleEndian.Uint32(b[4:8]); v != version {
		return header{}, fmt.Errorf("%w: version %d", ErrIncompatibleFormat, v)
	}
	h := header{
		compression: Compression(b[8]),
		checksum:    binary.LittleEndian.Uint32(b[12:16]),
		rawLen:      binary.LittleEndian.Uint64(b[16:24]),
		storedLen:   binary.LittleEndian.Uint64(b[24:32]),
	}
	if h.compression > CompressionZSTD {
		return header{}, fmt.Errorf("%w: %s", ErrIncompatibleFormat, h.compression)
	}
	if h.rawLen > math.MaxInt32 || h.storedLen > math.MaxInt32 {
		return header{}, fmt.Errorf("%w: payload too large", ErrCorrupt)
	}
	return h, nil
}

type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func newPayloadBuffer(b []byte) *payloadBuffer {
	return &payloadBuffer{buf: b}
}

func (p *payloadBuffer) writeUint64(v uint64) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
}

func (p *payloadBuffer) writeUint32(v uint32) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *payloadBuffer) writeString(s string) {
	if p.err != nil {
		return
	}
	if len(s) > math.MaxUint16 {
		p.err = fmt.Errorf("string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *payloadBuffer) writeBytes(b []byte) {
	if p.err != nil {
		return
	}
	if uint64(len(b)) > math.MaxUint32 {
		p.err = fmt.Errorf("value too large: %d bytes", len(b))
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(b)))
	p.buf = append(p.buf, b...)
}

func (p *payloadBuffer) need(n int) bool {
	if p.err != nil {
		return false
	}
	if n < 0 || p.pos+n > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return false
	}
	return true
}

func (p *payloadBuffer) readUint64() uint64 {
	if !p.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(p.buf[p.pos:])
	p.pos += 8
	return v
}

func (p *payloadBuffer) readUint32() uint32 {
	if !p.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v
}

func (p *payloadBuffer) readString() string {
	if !p.need(2) {
		return ""
	}
	l := int(binary.LittleEndian.Uint16(p.buf[p.pos:]))
	p.pos += 2

	if !p.need(l) {
		return ""
	}
	s := string(p.buf[p.pos : p.pos+l])
	p.pos += l
	return s
}

// readBytes returns a subslice of the payload without copying.
func (p *payloadBuffer) readBytes() []byte {
	l := int(p.readUint32())
	if !p.need(l) {
		return nil
	}
	b := p.buf[p.pos : p.pos+l : p.pos+l]
	p.pos += l
	return b
}

func (p *payloadBuffer) remaining() int {
	return len(p.buf) - p.pos
}
