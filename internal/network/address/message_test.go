//go:build linux

package address

import (
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// encodeMessage builds an RTM_NEWADDR payload the way the kernel does.
func encodeMessage(t *testing.T, rec Record, encode func(ae *netlink.AttributeEncoder)) []byte {
	t.Helper()

	ae := netlink.NewAttributeEncoder()
	encode(ae)
	attrs, err := ae.Encode()
	if err != nil {
		t.Fatalf("failed to encode attributes: %v", err)
	}
	return append(encodeHeader(rec), attrs...)
}

func Test_DecodeMessage(t *testing.T) {
	b := encodeMessage(t, Record{
		Family:    unix.AF_INET,
		PrefixLen: 24,
		Flags:     unix.IFA_F_PERMANENT,
		Scope:     unix.RT_SCOPE_UNIVERSE,
		Index:     7,
	}, func(ae *netlink.AttributeEncoder) {
		ae.Bytes(unix.IFA_ADDRESS, []byte{192, 168, 0, 5})
		ae.Bytes(unix.IFA_BROADCAST, []byte{192, 168, 0, 255})
		ae.String(unix.IFA_LABEL, "eth0")
		ae.Uint32(unix.IFA_FLAGS, unix.IFA_F_PERMANENT|unix.IFA_F_NOPREFIXROUTE)
	})

	rec, err := DecodeMessage(b)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if rec.Index != 7 || rec.PrefixLen != 24 || rec.Family != unix.AF_INET {
		t.Fatalf("unexpected header: %+v", rec)
	}
	if len(rec.Attributes) != 4 {
		t.Fatalf("expected 4 attributes, got %d", len(rec.Attributes))
	}

	a, err := Decode(rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Address{
		Addr:      net.IPv4(192, 168, 0, 5).To4(),
		Label:     "eth0",
		Flags:     unix.IFA_F_PERMANENT | unix.IFA_F_NOPREFIXROUTE,
		PrefixLen: 24,
		Peer:      net.IPv4zero.To4(),
		Broadcast: net.IPv4(192, 168, 0, 255).To4(),
	}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Fatalf("address mismatch (-want +got):\n%s", diff)
	}
}

func Test_DecodeMessage_HeaderOnly(t *testing.T) {
	rec, err := DecodeMessage(encodeHeader(Record{Family: unix.AF_INET6, PrefixLen: 128, Index: 1}))
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if len(rec.Attributes) != 0 {
		t.Fatalf("expected no attributes, got %d", len(rec.Attributes))
	}
}

func Test_DecodeMessage_Truncated(t *testing.T) {
	if _, err := DecodeMessage([]byte{unix.AF_INET, 24, 0}); err == nil {
		t.Fatal("expected an error decoding a truncated header")
	}

	// attribute header claims more data than is present
	b := append(encodeHeader(Record{Family: unix.AF_INET}), 0x20, 0x00, unix.IFA_ADDRESS, 0x00, 10, 0)
	if _, err := DecodeMessage(b); err == nil {
		t.Fatal("expected an error decoding a truncated attribute")
	}
}
