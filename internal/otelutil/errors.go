package otelutil

import (
	"context"
	"errors"

	"github.com/containerd/errdefs"
)

func errorKind(err error) string {
	switch {
	case checkErrors(err, context.Canceled):
		return "canceled"
	case checkErrors(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	case errdefs.IsInvalidArgument(err):
		return "invalid_argument"
	case errdefs.IsNotFound(err):
		return "not_found"
	case errdefs.IsAlreadyExists(err):
		return "already_exists"
	default:
		return "unknown"
	}
}

func checkErrors(err error, errs ...error) bool {
	for _, e := range errs {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}
