//go:build linux

package address

import (
	"context"

	"github.com/mdlayher/netlink"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sys/unix"

	"github.com/sandbox-runtime/vmnet/internal/log"
	"github.com/sandbox-runtime/vmnet/internal/logfields"
	"github.com/sandbox-runtime/vmnet/internal/otelutil"
)

// Dial opens a NETLINK_ROUTE socket for address dumps. A non-zero nsFD runs
// the socket inside that network namespace.
func Dial(nsFD int) (*netlink.Conn, error) {
	conn, err := netlink.Dial(unix.NETLINK_ROUTE, &netlink.Config{NetNS: nsFD})
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial rtnetlink")
	}
	return conn, nil
}

// List dumps the addresses known to the kernel for the given family
// (AF_UNSPEC for all) and decodes them. A non-zero index restricts the result
// to addresses of that link.
func List(ctx context.Context, conn *netlink.Conn, family uint8, index uint32) (_ []Address, err error) {
	ctx, span := otelutil.StartSpan(ctx, "address::List", trace.WithAttributes(
		attribute.Int(logfields.Family, int(family)),
		attribute.Int64(logfields.LinkIndex, int64(index))))
	defer span.End()
	defer func() { otelutil.SetSpanStatus(span, err) }()

	req := netlink.Message{
		Header: netlink.Header{
			Type:  unix.RTM_GETADDR,
			Flags: netlink.Request | netlink.Dump,
		},
		Data: encodeHeader(Record{Family: family}),
	}

	msgs, err := conn.Execute(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dump addresses")
	}

	var addrs []Address
	for _, m := range msgs {
		if m.Header.Type != unix.RTM_NEWADDR {
			continue
		}
		rec, err := DecodeMessage(m.Data)
		if err != nil {
			return nil, err
		}
		if index != 0 && rec.Index != index {
			continue
		}
		a, err := Decode(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode address of link %d", rec.Index)
		}
		addrs = append(addrs, a)
	}

	log.G(ctx).WithFields(logrus.Fields{
		logfields.Family:    family,
		logfields.LinkIndex: index,
		"count":             len(addrs),
	}).Debug("listed link addresses")
	return addrs, nil
}

// Lister lists the addresses of a single link over a shared rtnetlink
// connection.
type Lister struct {
	Conn   *netlink.Conn
	Family uint8
}

// List implements the address lookup used during network pair discovery.
func (l *Lister) List(ctx context.Context, index uint32) ([]Address, error) {
	return List(ctx, l.Conn, l.Family, index)
}
