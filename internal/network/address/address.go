//go:build linux

// Package address decodes the interface address records delivered by the
// kernel rtnetlink subsystem (RTM_NEWADDR) into typed [Address] values.
package address

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Address is one IP address attached to a network link.
type Address struct {
	Addr              net.IP
	Label             string
	Flags             uint32
	Scope             uint8
	PrefixLen         uint8
	Peer              net.IP
	Broadcast         net.IP
	PreferredLifetime uint32
	ValidLifetime     uint32
}

// Attribute is a single route attribute of an address record, in wire order.
type Attribute struct {
	Type uint16
	Data []byte
}

// Record is an address message that has already been framed into its
// `ifaddrmsg` header and attribute list.
type Record struct {
	Family     uint8
	PrefixLen  uint8
	Flags      uint8
	Scope      uint8
	Index      uint32
	Attributes []Attribute
}

// DecodeError is returned when an address payload does not match the family it
// is declared with, or when the family is not one of AF_INET or AF_INET6.
type DecodeError struct {
	Family uint8
	Data   []byte
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Data == nil {
		return fmt.Sprintf("invalid address record (family %d): %s", e.Family, e.Reason)
	}
	return fmt.Sprintf("invalid ip address %v (family %d): %s", e.Data, e.Family, e.Reason)
}

// Decode converts rec into an [Address].
//
// Fields start out at their zero value (the unspecified address of the
// record's family for IPs) and are overwritten by the attributes present in
// rec. Attribute kinds that are not understood are skipped. IFA_CACHEINFO is
// skipped as well, so the lifetimes are always zero.
func Decode(rec Record) (Address, error) {
	size, err := familySize(rec.Family)
	if err != nil {
		return Address{}, err
	}

	a := Address{
		Addr:      make(net.IP, size),
		Peer:      make(net.IP, size),
		Broadcast: make(net.IP, size),
		Scope:     rec.Scope,
		PrefixLen: rec.PrefixLen,
	}

	for _, attr := range rec.Attributes {
		switch attr.Type {
		case unix.IFA_ADDRESS:
			if a.Addr, err = ParseIP(attr.Data, rec.Family); err != nil {
				return Address{}, err
			}
		case unix.IFA_BROADCAST:
			if a.Broadcast, err = ParseIP(attr.Data, rec.Family); err != nil {
				return Address{}, err
			}
		case unix.IFA_LABEL:
			a.Label = cString(attr.Data)
		case unix.IFA_FLAGS:
			// a short payload leaves the default in place
			if len(attr.Data) >= 4 {
				a.Flags = binary.NativeEndian.Uint32(attr.Data)
			}
		case unix.IFA_CACHEINFO:
		}
	}

	return a, nil
}

// ParseIP converts the raw address bytes b of the given family into an IP.
// AF_INET requires exactly 4 bytes and AF_INET6 exactly 16.
func ParseIP(b []byte, family uint8) (net.IP, error) {
	size, err := familySize(family)
	if err != nil {
		return nil, &DecodeError{Family: family, Data: copyBytes(b), Reason: "unknown IP network family"}
	}

	if len(b) != size {
		return nil, &DecodeError{
			Family: family,
			Data:   copyBytes(b),
			Reason: fmt.Sprintf("expected %d bytes, got %d", size, len(b)),
		}
	}

	return net.IP(copyBytes(b)), nil
}

// familySize returns the length of an address of the given family. The
// zero-filled IP of that length is the family's unspecified address.
func familySize(family uint8) (int, error) {
	switch family {
	case unix.AF_INET:
		return net.IPv4len, nil
	case unix.AF_INET6:
		return net.IPv6len, nil
	}
	return 0, &DecodeError{Family: family, Reason: "unknown IP network family"}
}

// cString returns the contents of a NUL-terminated netlink string attribute.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
