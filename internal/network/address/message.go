//go:build linux

package address

import (
	"encoding/binary"

	"github.com/mdlayher/netlink"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DecodeMessage frames the payload of a single RTM_NEWADDR message, an
// `ifaddrmsg` header followed by route attributes, into a [Record].
func DecodeMessage(b []byte) (Record, error) {
	if len(b) < unix.SizeofIfAddrmsg {
		return Record{}, errors.Errorf("address message too short: %d bytes", len(b))
	}

	rec := Record{
		Family:    b[0],
		PrefixLen: b[1],
		Flags:     b[2],
		Scope:     b[3],
		Index:     binary.NativeEndian.Uint32(b[4:8]),
	}

	decoder, err := netlink.NewAttributeDecoder(b[unix.SizeofIfAddrmsg:])
	if err != nil {
		return Record{}, errors.Wrap(err, "failed to decode address attributes")
	}

	for decoder.Next() {
		rec.Attributes = append(rec.Attributes, Attribute{
			Type: decoder.Type(),
			Data: decoder.Bytes(),
		})
	}

	if err := decoder.Err(); err != nil {
		return Record{}, errors.Wrap(err, "failed to decode address attributes")
	}
	return rec, nil
}

// encodeHeader serializes the `ifaddrmsg` header of rec.
func encodeHeader(rec Record) []byte {
	b := make([]byte, unix.SizeofIfAddrmsg)
	b[0] = rec.Family
	b[1] = rec.PrefixLen
	b[2] = rec.Flags
	b[3] = rec.Scope
	binary.NativeEndian.PutUint32(b[4:8], rec.Index)
	return b
}
