// ABOUTME: Version constants for the peer-presence service
// ABOUTME: Referenced by startup logs and the foreign-function bridge
package version

// Version is the library version, overridable at build time via
// -ldflags "-X .../internal/version.Version=x.y.z".
var Version = "0.1.0"

// Product is the service name reported in startup logs.
const Product = "mdns-peer"

// Manufacturer identifies who built this implementation.
const Manufacturer = "mdns-peer contributors"
