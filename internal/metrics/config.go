package metrics

// DefaultAddress is where the CLI serves /metrics when enabled without an
// explicit address.
const DefaultAddress = ":9090"

// Config controls the metrics endpoint.
type Config struct {
	// Address the HTTP server listens on. Empty disables serving.
	Address string `yaml:"address"`
	// EnableDefaultCollectors registers the Go runtime and process collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors"`
}
