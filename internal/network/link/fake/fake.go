//go:build linux

// Package fake provides an in-memory [link.Handle] for tests.
package fake

import (
	"fmt"
	"net"
	"sync"

	"github.com/vishvananda/netlink"

	"github.com/sandbox-runtime/vmnet/internal/network/link"
)

// Handle records links, qdiscs and filters in memory. Errors can be injected
// per operation through the Err* fields.
type Handle struct {
	mu        sync.Mutex
	nextIndex int

	Links   map[string]netlink.Link
	Up      map[string]bool
	Qdiscs  []netlink.Qdisc
	Filters []netlink.Filter

	ErrLinkByName error
	ErrLinkAdd    error
	ErrLinkDel    error
	ErrQdiscAdd   error
	ErrQdiscDel   error
	ErrFilterAdd  error
}

var _ link.Handle = &Handle{}

func NewHandle() *Handle {
	return &Handle{
		nextIndex: 1,
		Links:     make(map[string]netlink.Link),
		Up:        make(map[string]bool),
	}
}

// AddVeth registers an existing veth-like link, as created by a CNI plugin.
func (h *Handle) AddVeth(name string, mac net.HardwareAddr) netlink.Link {
	h.mu.Lock()
	defer h.mu.Unlock()

	l := &netlink.Veth{LinkAttrs: netlink.LinkAttrs{
		Name:         name,
		Index:        h.allocIndex(),
		HardwareAddr: mac,
	}}
	h.Links[name] = l
	return l
}

func (h *Handle) allocIndex() int {
	i := h.nextIndex
	h.nextIndex++
	return i
}

func (h *Handle) LinkByName(name string) (netlink.Link, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ErrLinkByName != nil {
		return nil, h.ErrLinkByName
	}
	l, ok := h.Links[name]
	if !ok {
		return nil, fmt.Errorf("link %s not found", name)
	}
	return l, nil
}

func (h *Handle) LinkAdd(l netlink.Link) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ErrLinkAdd != nil {
		return h.ErrLinkAdd
	}
	attrs := l.Attrs()
	if _, ok := h.Links[attrs.Name]; ok {
		return fmt.Errorf("link %s already exists", attrs.Name)
	}
	attrs.Index = h.allocIndex()
	if attrs.HardwareAddr == nil {
		attrs.HardwareAddr = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, byte(attrs.Index)}
	}
	h.Links[attrs.Name] = l
	return nil
}

func (h *Handle) LinkDel(l netlink.Link) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ErrLinkDel != nil {
		return h.ErrLinkDel
	}
	name := l.Attrs().Name
	if _, ok := h.Links[name]; !ok {
		return fmt.Errorf("link %s not found", name)
	}
	delete(h.Links, name)
	delete(h.Up, name)
	return nil
}

func (h *Handle) LinkSetUp(l netlink.Link) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Up[l.Attrs().Name] = true
	return nil
}

func (h *Handle) LinkSetMTU(l netlink.Link, mtu int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	l.Attrs().MTU = mtu
	return nil
}

func (h *Handle) QdiscAdd(q netlink.Qdisc) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ErrQdiscAdd != nil {
		return h.ErrQdiscAdd
	}
	h.Qdiscs = append(h.Qdiscs, q)
	return nil
}

func (h *Handle) QdiscDel(q netlink.Qdisc) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ErrQdiscDel != nil {
		return h.ErrQdiscDel
	}
	for i, existing := range h.Qdiscs {
		if existing == q {
			h.Qdiscs = append(h.Qdiscs[:i], h.Qdiscs[i+1:]...)
			h.dropFilters(q.Attrs().LinkIndex)
			return nil
		}
	}
	return fmt.Errorf("qdisc %v not found", q)
}

// dropFilters mirrors the kernel removing filters attached to a deleted qdisc.
func (h *Handle) dropFilters(linkIndex int) {
	kept := h.Filters[:0]
	for _, f := range h.Filters {
		if f.Attrs().LinkIndex != linkIndex {
			kept = append(kept, f)
		}
	}
	h.Filters = kept
}

func (h *Handle) QdiscList(l netlink.Link) ([]netlink.Qdisc, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var qdiscs []netlink.Qdisc
	for _, q := range h.Qdiscs {
		if q.Attrs().LinkIndex == l.Attrs().Index {
			qdiscs = append(qdiscs, q)
		}
	}
	return qdiscs, nil
}

func (h *Handle) FilterAdd(f netlink.Filter) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ErrFilterAdd != nil {
		return h.ErrFilterAdd
	}
	h.Filters = append(h.Filters, f)
	return nil
}
