//go:build linux

package address

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"
)

func Test_ParseIP(t *testing.T) {
	for _, tc := range []struct {
		name    string
		data    []byte
		family  uint8
		want    net.IP
		wantErr bool
	}{
		{
			name:   "ipv4",
			data:   []byte{10, 25, 64, 128},
			family: unix.AF_INET,
			want:   net.IPv4(10, 25, 64, 128),
		},
		{
			// two bytes form one group: (0, 2) => 0x0002, (4, 0) => 0x0400
			name:   "ipv6",
			data:   []byte{0, 2, 4, 0, 0, 2, 4, 0, 0, 2, 4, 0, 0, 2, 4, 0},
			family: unix.AF_INET6,
			want:   net.ParseIP("2:400:2:400:2:400:2:400"),
		},
		{
			name:    "ipv4 too long",
			data:    []byte{10, 22, 33, 44, 55},
			family:  unix.AF_INET,
			wantErr: true,
		},
		{
			name:    "ipv4 given ipv6 bytes",
			data:    make([]byte, 16),
			family:  unix.AF_INET,
			wantErr: true,
		},
		{
			name:    "ipv6 too short",
			data:    []byte{1, 2, 3, 4, 5, 6, 7, 8, 2, 3},
			family:  unix.AF_INET6,
			wantErr: true,
		},
		{
			name:    "ipv6 given ipv4 bytes",
			data:    []byte{10, 25, 64, 128},
			family:  unix.AF_INET6,
			wantErr: true,
		},
		{
			name:    "empty",
			family:  unix.AF_INET,
			wantErr: true,
		},
		{
			name:    "unknown family",
			data:    []byte{10, 25, 64, 128},
			family:  unix.AF_PACKET,
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ip, err := ParseIP(tc.data, tc.family)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected an error, instead got %v", ip)
				}
				var decodeErr *DecodeError
				if !errors.As(err, &decodeErr) {
					t.Fatalf("expected a *DecodeError, got %T: %v", err, err)
				}
				if decodeErr.Family != tc.family {
					t.Fatalf("expected error family %d, got %d", tc.family, decodeErr.Family)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIP: %v", err)
			}
			if !ip.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, ip)
			}
		})
	}
}

func Test_ParseIP_DoesNotAliasInput(t *testing.T) {
	data := []byte{192, 168, 0, 5}
	ip, err := ParseIP(data, unix.AF_INET)
	if err != nil {
		t.Fatal(err)
	}
	data[3] = 6
	if !ip.Equal(net.IPv4(192, 168, 0, 5)) {
		t.Fatalf("parsed ip changed with its input: %v", ip)
	}
}

func FuzzParseIP(f *testing.F) {
	f.Add([]byte{10, 25, 64, 128}, uint8(unix.AF_INET))
	f.Add([]byte{0, 2, 4, 0, 0, 2, 4, 0, 0, 2, 4, 0, 0, 2, 4, 0}, uint8(unix.AF_INET6))
	f.Add([]byte{1, 2, 3}, uint8(unix.AF_INET))
	f.Add([]byte{1, 2, 3, 4}, uint8(unix.AF_UNSPEC))

	f.Fuzz(func(t *testing.T, data []byte, family uint8) {
		ip, err := ParseIP(data, family)

		switch {
		case family == unix.AF_INET && len(data) == net.IPv4len,
			family == unix.AF_INET6 && len(data) == net.IPv6len:
			if err != nil {
				t.Fatalf("ParseIP(%v, %d): %v", data, family, err)
			}
			for i := range data {
				if ip[i] != data[i] {
					t.Fatalf("octet %d: expected %d, got %d", i, data[i], ip[i])
				}
			}
			if family == unix.AF_INET6 {
				for g := 0; g < 8; g++ {
					want := binary.BigEndian.Uint16(data[2*g:])
					got := uint16(ip[2*g])<<8 | uint16(ip[2*g+1])
					if want != got {
						t.Fatalf("group %d: expected %#04x, got %#04x", g, want, got)
					}
				}
			}
		default:
			if err == nil {
				t.Fatalf("ParseIP(%v, %d): expected an error, got %v", data, family, ip)
			}
		}
	})
}

func nativeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.NativeEndian.PutUint32(b, v)
	return b
}

func Test_Decode(t *testing.T) {
	for _, tc := range []struct {
		name string
		rec  Record
		want Address
	}{
		{
			name: "no attributes ipv4",
			rec:  Record{Family: unix.AF_INET, PrefixLen: 24, Scope: unix.RT_SCOPE_LINK},
			want: Address{
				Addr:      net.IPv4zero.To4(),
				Peer:      net.IPv4zero.To4(),
				Broadcast: net.IPv4zero.To4(),
				Scope:     unix.RT_SCOPE_LINK,
				PrefixLen: 24,
			},
		},
		{
			name: "no attributes ipv6",
			rec:  Record{Family: unix.AF_INET6, PrefixLen: 64, Scope: unix.RT_SCOPE_UNIVERSE},
			want: Address{
				Addr:      net.IPv6unspecified,
				Peer:      net.IPv6unspecified,
				Broadcast: net.IPv6unspecified,
				PrefixLen: 64,
			},
		},
		{
			name: "full ipv4",
			rec: Record{
				Family:    unix.AF_INET,
				PrefixLen: 16,
				Scope:     unix.RT_SCOPE_UNIVERSE,
				Attributes: []Attribute{
					{Type: unix.IFA_ADDRESS, Data: []byte{172, 17, 0, 2}},
					{Type: unix.IFA_LOCAL, Data: []byte{172, 17, 0, 2}},
					{Type: unix.IFA_BROADCAST, Data: []byte{172, 17, 255, 255}},
					{Type: unix.IFA_LABEL, Data: []byte("eth0\x00")},
					{Type: unix.IFA_FLAGS, Data: nativeUint32(unix.IFA_F_PERMANENT)},
					{Type: unix.IFA_CACHEINFO, Data: make([]byte, 16)},
				},
			},
			want: Address{
				Addr:      net.IPv4(172, 17, 0, 2).To4(),
				Label:     "eth0",
				Flags:     unix.IFA_F_PERMANENT,
				PrefixLen: 16,
				Peer:      net.IPv4zero.To4(),
				Broadcast: net.IPv4(172, 17, 255, 255).To4(),
			},
		},
		{
			name: "unknown attribute kinds are skipped",
			rec: Record{
				Family:    unix.AF_INET6,
				PrefixLen: 64,
				Attributes: []Attribute{
					{Type: 0x7ff, Data: []byte{1, 2, 3}},
					{Type: unix.IFA_ADDRESS, Data: net.ParseIP("fe80::42:acff:fe11:2")},
					{Type: unix.IFA_MULTICAST, Data: nativeUint32(100)},
				},
			},
			want: Address{
				Addr:      net.ParseIP("fe80::42:acff:fe11:2"),
				PrefixLen: 64,
				Peer:      net.IPv6unspecified,
				Broadcast: net.IPv6unspecified,
			},
		},
		{
			name: "short flags keep the default",
			rec: Record{
				Family:     unix.AF_INET,
				Attributes: []Attribute{{Type: unix.IFA_FLAGS, Data: []byte{1}}},
			},
			want: Address{
				Addr:      net.IPv4zero.To4(),
				Peer:      net.IPv4zero.To4(),
				Broadcast: net.IPv4zero.To4(),
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.rec)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("address mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_Decode_Errors(t *testing.T) {
	for _, tc := range []struct {
		name string
		rec  Record
	}{
		{
			name: "unknown family",
			rec:  Record{Family: unix.AF_UNSPEC},
		},
		{
			name: "bad address length",
			rec: Record{
				Family:     unix.AF_INET,
				Attributes: []Attribute{{Type: unix.IFA_ADDRESS, Data: []byte{10, 0, 0}}},
			},
		},
		{
			name: "bad broadcast length",
			rec: Record{
				Family:     unix.AF_INET6,
				Attributes: []Attribute{{Type: unix.IFA_BROADCAST, Data: []byte{10, 0, 0, 255}}},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a, err := Decode(tc.rec)
			if err == nil {
				t.Fatalf("expected an error, instead got %+v", a)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected a *DecodeError, got %T: %v", err, err)
			}
		})
	}
}
