package logfields

const (
	// Identifiers

	Name      = "name"
	Namespace = "namespace"
	Operation = "operation"

	ID        = "id"
	SandboxID = "sid"
	DeviceID  = "device-id"

	// networking

	Interface   = "ifname"
	LinkIndex   = "link-index"
	TapName     = "tap"
	HostDevName = "host-dev"
	GuestMAC    = "guest-mac"
	HardAddr    = "hard-addr"
	Family      = "family"
	Queues      = "queues"
	Model       = "model"
	Address     = "address"

	// Common Misc

	Path = "path"
	JSON = "json"

	// Keys/Values

	Key   = "key"
	Value = "value"

	// logging and tracing

	TraceID      = "traceID"
	SpanID       = "spanID"
	ParentSpanID = "parentSpanID"
)
