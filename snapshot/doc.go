// Package snapshot persists the live contents of a sharedcomp.Store.
//
// A snapshot records, per registered type, every live value together with its
// handle and reference count. Values are encoded with a codec from package
// codec and the payload is optionally compressed with LZ4 or Zstandard.
//
// Loading never writes into the destination store directly: values are first
// rebuilt in a scratch store and then moved over with Store.Transplant, so a
// failed load leaves the destination untouched. The returned Remap translates
// handles recorded in the snapshot to handles in the destination.
//
// File layout (little-endian):
//
//	Magic        (4 bytes)  "SHCS"
//	Version      (4 bytes)
//	Compression  (1 byte)
//	Reserved     (3 bytes)
//	Checksum     (4 bytes)  CRC32C of the stored payload
//	RawLength    (8 bytes)
//	StoredLength (8 bytes)
//	Payload:
//	  Codec (string)
//	  NumTypes (4 bytes)
//	  Types...
//	    Name (string)
//	    NumValues (4 bytes)
//	    Values...
//	      Handle (8 bytes)
//	      RefCount (4 bytes)
//	      Length (4 bytes)
//	      Data
package snapshot
