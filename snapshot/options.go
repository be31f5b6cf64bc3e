package snapshot

import (
	"runtime"

	"github.com/hupe1980/sharedcomp"
	"github.com/hupe1980/sharedcomp/codec"
	"github.com/hupe1980/sharedcomp/resource"
)

type options struct {
	codec       codec.Codec
	compression Compression
	rc          *resource.Controller
	concurrency int
	logger      *sharedcomp.Logger
}

// Option configures Save and Load.
type Option func(*options)

// WithCodec sets the value codec. Save records its name in the snapshot; Load
// uses it when the recorded name matches and falls back to codec.ByName.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression sets the payload compression used by Save.
// Default: CompressionLZ4.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithResourceController bounds workers, buffered bytes and IO throughput.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithConcurrency caps the number of types encoded or decoded at once.
// Default: GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLogger sets the logger for save/load summaries.
func WithLogger(l *sharedcomp.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		codec:       codec.Default,
		compression: CompressionLZ4,
		concurrency: runtime.GOMAXPROCS(0),
		logger:      sharedcomp.NoopLogger(),
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
