// Package hypervisor contains what network endpoints need from the VMM that
// runs a sandbox: hot-adding and hot-removing devices.
//
// A mock of [Hypervisor] under `mock` is used for unit testing endpoints.
package hypervisor

//go:generate go tool mockgen -source=hypervisor.go -package=mock -destination=mock/hypervisor_mock.go
