package snapshot

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/sharedcomp"
	"github.com/hupe1980/sharedcomp/codec"
	"github.com/hupe1980/sharedcomp/internal/hash"
	"github.com/hupe1980/sharedcomp/resource"
)

// Stats summarizes a saved snapshot.
type Stats struct {
	Types       int
	Values      int
	RawBytes    int64
	StoredBytes int64
	Compression Compression
}

type record struct {
	handle sharedcomp.Handle
	refs   uint32
	value  any
	data   []byte
}

type section struct {
	typ     sharedcomp.AnyType
	name    string
	records []record
}

const ctxCheckEvery = 256

// Save writes every live value of s to w.
//
// The store must not be modified while Save runs. Values are read on the
// calling goroutine; encoding runs in parallel per type.
func Save(ctx context.Context, w io.Writer, s *sharedcomp.Store, optFns ...Option) (Stats, error) {
	start := time.Now()
	o := applyOptions(optFns)

	stats, err := save(ctx, w, s, o)
	o.logger.LogSnapshot("save", stats.Values, stats.StoredBytes, time.Since(start), err)
	return stats, err
}

func save(ctx context.Context, w io.Writer, s *sharedcomp.Store, o options) (Stats, error) {
	sections := collect(s)

	var reserved atomic.Int64
	defer func() { o.rc.ReleaseBuffer(reserved.Load()) }()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for _, sec := range sections {
		g.Go(func() error {
			if err := o.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer o.rc.ReleaseWorker()

			n, err := sec.encode(gctx, o.codec)
			if err != nil {
				return fmt.Errorf("encode %s: %w", sec.name, err)
			}
			if !o.rc.TryReserveBuffer(n) {
				return fmt.Errorf("encode %s: %w", sec.name, resource.ErrOverLimit)
			}
			reserved.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	stats := Stats{Types: len(sections)}

	pb := newPayloadBuffer(make([]byte, 0, 64+reserved.Load()))
	pb.writeString(o.codec.Name())
	pb.writeUint32(uint32(len(sections)))
	for _, sec := range sections {
		pb.writeString(sec.name)
		pb.writeUint32(uint32(len(sec.records)))
		for _, rec := range sec.records {
			pb.writeUint64(uint64(rec.handle))
			pb.writeUint32(rec.refs)
			pb.writeBytes(rec.data)
		}
		stats.Values += len(sec.records)
	}
	if pb.err != nil {
		return Stats{}, pb.err
	}

	raw := pb.buf
	stored, used, err := compress(raw, o.compression)
	if err != nil {
		return Stats{}, err
	}

	h := header{
		compression: used,
		checksum:    hash.CRC32C(stored),
		rawLen:      uint64(len(raw)),
		storedLen:   uint64(len(stored)),
	}

	rw := resource.NewRateLimitedWriter(ctx, w, o.rc)
	if _, err := rw.Write(h.marshal()); err != nil {
		return Stats{}, err
	}
	if _, err := rw.Write(stored); err != nil {
		return Stats{}, err
	}

	stats.RawBytes = int64(len(raw))
	stats.StoredBytes = int64(headerSize + len(stored))
	stats.Compression = used
	return stats, nil
}

// collect reads the live values of every registered type with at least one.
func collect(s *sharedcomp.Store) []*section {
	var sections []*section
	for t := range s.Registry().Types() {
		n := s.Count(t.ID())
		if n == 0 {
			continue
		}
		sec := &section{typ: t, name: t.Name(), records: make([]record, 0, n)}
		for h, v := range s.EnumerateLive(t.ID()) {
			sec.records = append(sec.records, record{handle: h, refs: s.RefCount(h), value: v})
		}
		sections = append(sections, sec)
	}
	return sections
}

// encode marshals every record and returns the encoded size.
func (sec *section) encode(ctx context.Context, c codec.Codec) (int64, error) {
	var n int64
	for i := range sec.records {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		data, err := c.Marshal(sec.records[i].value)
		if err != nil {
			return 0, err
		}
		sec.records[i].data = data
		n += int64(len(data))
	}
	return n, nil
}

// decode unmarshals every record into a fresh value of the section type.
func (sec *section) decode(ctx context.Context, c codec.Codec) error {
	for i := range sec.records {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		v := sec.typ.New()
		if err := c.Unmarshal(sec.records[i].data, v); err != nil {
			return fmt.Errorf("%w: value %s: %v", ErrCorrupt, sec.records[i].handle, err)
		}
		sec.records[i].value = v
	}
	return nil
}

// Load reads a snapshot from r and merges its values into dst, deduplicating
// against values dst already holds. The returned remap translates handles
// recorded in the snapshot to handles in dst.
//
// On error dst is unchanged.
func Load(ctx context.Context, r io.Reader, dst *sharedcomp.Store, optFns ...Option) (sharedcomp.Remap, error) {
	start := time.Now()
	o := applyOptions(optFns)

	remap, values, size, err := load(ctx, r, dst, o)
	o.logger.LogSnapshot("load", values, size, time.Since(start), err)
	return remap, err
}

// Restore loads a snapshot into an empty store. It panics if dst holds live
// values, like Store.PrepareForDeserialize.
func Restore(ctx context.Context, r io.Reader, dst *sharedcomp.Store, optFns ...Option) (sharedcomp.Remap, error) {
	dst.PrepareForDeserialize()
	return Load(ctx, r, dst, optFns...)
}

func load(ctx context.Context, r io.Reader, dst *sharedcomp.Store, o options) (sharedcomp.Remap, int, int64, error) {
	rr := resource.NewRateLimitedReader(ctx, r, o.rc)

	h, err := readHeader(rr)
	if err != nil {
		return nil, 0, 0, err
	}

	budget := int64(h.storedLen)
	if h.compression != CompressionNone {
		budget += int64(h.rawLen)
	}
	if err := o.rc.ReserveBuffer(ctx, budget); err != nil {
		return nil, 0, 0, err
	}
	defer o.rc.ReleaseBuffer(budget)

	stored := make([]byte, h.storedLen)
	if _, err := io.ReadFull(rr, stored); err != nil {
		if ctx.Err() != nil {
			return nil, 0, 0, err
		}
		return nil, 0, 0, fmt.Errorf("%w: payload: %v", ErrCorrupt, err)
	}
	if got := hash.CRC32C(stored); got != h.checksum {
		return nil, 0, 0, fmt.Errorf("%w: checksum %08x, want %08x", ErrCorrupt, got, h.checksum)
	}
	size := int64(headerSize) + int64(h.storedLen)

	raw, err := decompress(stored, h.compression, int(h.rawLen))
	if err != nil {
		return nil, 0, size, err
	}

	c, sections, err := parse(raw, dst.Registry(), o.codec)
	if err != nil {
		return nil, 0, size, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for _, sec := range sections {
		g.Go(func() error {
			if err := o.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer o.rc.ReleaseWorker()
			return sec.decode(gctx, c)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, size, err
	}

	remap, values, err := rebuild(dst, sections)
	return remap, values, size, err
}

// parse validates the payload and resolves codec and types.
func parse(raw []byte, reg *sharedcomp.Registry, preferred codec.Codec) (codec.Codec, []*section, error) {
	pb := newPayloadBuffer(raw)

	name := pb.readString()
	if pb.err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, pb.err)
	}
	c := preferred
	if c == nil || c.Name() != name {
		var ok bool
		if c, ok = codec.ByName(name); !ok {
			return nil, nil, fmt.Errorf("%w: codec %q", ErrIncompatibleFormat, name)
		}
	}

	numTypes := pb.readUint32()
	var sections []*section
	seen := make(map[string]bool)
	for i := uint32(0); i < numTypes && pb.err == nil; i++ {
		typeName := pb.readString()
		count := pb.readUint32()
		if pb.err != nil {
			break
		}
		if seen[typeName] {
			return nil, nil, fmt.Errorf("%w: type %s recorded twice", ErrCorrupt, typeName)
		}
		seen[typeName] = true

		t, ok := reg.Lookup(typeName)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
		}
		// Every record is at least 16 bytes.
		if uint64(count)*16 > uint64(pb.remaining()) {
			return nil, nil, fmt.Errorf("%w: type %s claims %d values", ErrCorrupt, typeName, count)
		}

		sec := &section{typ: t, name: typeName, records: make([]record, 0, count)}
		for j := uint32(0); j < count && pb.err == nil; j++ {
			rec := record{
				handle: sharedcomp.Handle(pb.readUint64()),
				refs:   pb.readUint32(),
				data:   pb.readBytes(),
			}
			if pb.err != nil {
				break
			}
			if rec.handle.IsDefault() || rec.refs == 0 {
				return nil, nil, fmt.Errorf("%w: type %s: handle %s with %d references", ErrCorrupt, typeName, rec.handle, rec.refs)
			}
			sec.records = append(sec.records, rec)
		}
		sections = append(sections, sec)
	}
	if pb.err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, pb.err)
	}
	if pb.remaining() != 0 {
		return nil, nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, pb.remaining())
	}
	return c, sections, nil
}

// rebuild inserts decoded values into a scratch store and transplants it into dst.
func rebuild(dst *sharedcomp.Store, sections []*section) (sharedcomp.Remap, int, error) {
	scratch := sharedcomp.New(dst.Registry())
	defer func() { _ = scratch.Close() }()

	saved := sharedcomp.Remap{sharedcomp.DefaultHandle: sharedcomp.DefaultHandle}
	values := 0
	for _, sec := range sections {
		for _, rec := range sec.records {
			if _, dup := saved[rec.handle]; dup {
				return nil, values, fmt.Errorf("%w: handle %s recorded twice", ErrCorrupt, rec.handle)
			}
			// Values equal to the current default collapse onto it.
			if sec.typ.IsDefault(rec.value) {
				saved[rec.handle] = sharedcomp.DefaultHandle
				continue
			}
			h, err := sec.typ.InsertBoxed(scratch, rec.value)
			if err != nil {
				return nil, values, fmt.Errorf("insert %s: %w", sec.name, err)
			}
			if rc := scratch.RefCount(h); rec.refs-1 > math.MaxUint32-rc {
				return nil, values, fmt.Errorf("%w: %s references of %s overflow", ErrCorrupt, sec.name, rec.handle)
			}
			scratch.AddReferences(h, rec.refs-1)
			saved[rec.handle] = h
			values++
		}
	}

	moved, err := dst.Transplant(scratch)
	if err != nil {
		return nil, values, err
	}
	return saved.Compose(moved), values, nil
}
