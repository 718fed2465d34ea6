//go:build linux

// Package model implements the network interworking models that connect the
// CNI-provided interface of a sandbox to the tap device handed to the VM.
package model

import (
	"context"

	"github.com/containerd/errdefs"
	"github.com/pkg/errors"

	"github.com/sandbox-runtime/vmnet/internal/network/link"
)

const (
	// TCFilterModel redirects traffic between the two links with tc mirred
	// actions on their ingress qdiscs.
	TCFilterModel = "tcfilter"
	// NoneModel does no host side plumbing.
	NoneModel = "none"
)

// Model installs and removes the host side plumbing between a tap device and
// the virtual interface it stands in for.
type Model interface {
	Kind() string
	Add(ctx context.Context, h link.Handle, tapName, virtName string) error
	Del(ctx context.Context, h link.Handle, tapName, virtName string) error
}

// New returns the model for kind.
func New(kind string) (Model, error) {
	switch kind {
	case TCFilterModel:
		return tcFilter{}, nil
	case NoneModel:
		return none{}, nil
	}
	return nil, errors.Wrapf(errdefs.ErrInvalidArgument, "unsupported network interworking model %q", kind)
}

type none struct{}

func (none) Kind() string { return NoneModel }

func (none) Add(context.Context, link.Handle, string, string) error { return nil }

func (none) Del(context.Context, link.Handle, string, string) error { return nil }
