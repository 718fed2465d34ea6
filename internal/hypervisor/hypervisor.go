package hypervisor

import "context"

// Hypervisor is the device hot-plug surface of a sandbox VM.
//
// Implementations must be safe for concurrent use; endpoints of the same
// sandbox may add and remove devices at the same time.
type Hypervisor interface {
	AddDevice(ctx context.Context, device Device) error
	RemoveDevice(ctx context.Context, device Device) error
}
