//go:build linux

package address

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nltest"
	"golang.org/x/sys/unix"
)

func dumpReply(t *testing.T, req netlink.Message, rec Record, ip []byte) netlink.Message {
	t.Helper()
	return netlink.Message{
		Header: netlink.Header{
			Type:     unix.RTM_NEWADDR,
			Sequence: req.Header.Sequence,
			PID:      req.Header.PID,
		},
		Data: encodeMessage(t, rec, func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.IFA_ADDRESS, ip)
		}),
	}
}

func Test_List(t *testing.T) {
	var requests int
	conn := nltest.Dial(func(reqs []netlink.Message) ([]netlink.Message, error) {
		requests++
		req := reqs[0]
		if req.Header.Type != unix.RTM_GETADDR {
			t.Errorf("expected RTM_GETADDR request, got %v", req.Header.Type)
		}
		if req.Header.Flags&netlink.Dump == 0 {
			t.Errorf("expected a dump request, got flags %v", req.Header.Flags)
		}
		if len(req.Data) != unix.SizeofIfAddrmsg || req.Data[0] != unix.AF_INET {
			t.Errorf("unexpected request payload %v", req.Data)
		}
		return []netlink.Message{
			dumpReply(t, req, Record{Family: unix.AF_INET, PrefixLen: 8, Scope: unix.RT_SCOPE_HOST, Index: 1}, []byte{127, 0, 0, 1}),
			dumpReply(t, req, Record{Family: unix.AF_INET, PrefixLen: 16, Index: 4}, []byte{172, 17, 0, 2}),
		}, nil
	})
	defer conn.Close()

	ctx := context.Background()
	addrs, err := List(ctx, conn, unix.AF_INET, 4)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(addrs) != 1 {
		t.Fatalf("expected 1 address for link 4, got %d", len(addrs))
	}
	if !addrs[0].Addr.Equal(net.IPv4(172, 17, 0, 2)) || addrs[0].PrefixLen != 16 {
		t.Fatalf("unexpected address %+v", addrs[0])
	}

	l := &Lister{Conn: conn, Family: unix.AF_INET}
	all, err := l.List(ctx, 0)
	if err != nil {
		t.Fatalf("Lister.List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(all))
	}
	if requests != 2 {
		t.Fatalf("expected 2 dump requests, got %d", requests)
	}
}

func Test_List_DecodeError(t *testing.T) {
	conn := nltest.Dial(func(reqs []netlink.Message) ([]netlink.Message, error) {
		return []netlink.Message{
			dumpReply(t, reqs[0], Record{Family: unix.AF_INET, Index: 2}, []byte{10, 0, 0}),
		}, nil
	})
	defer conn.Close()

	_, err := List(context.Background(), conn, unix.AF_UNSPEC, 0)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected a *DecodeError, got %v", err)
	}
}
