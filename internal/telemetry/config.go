package telemetry

// Config holds OpenTelemetry tracing configuration for the importer daemon.
type Config struct {
	Enabled bool

	// ServiceName is reported to the trace backend, e.g. "ixfimportd".
	ServiceName string

	ServiceVersion string

	// Endpoint is the OTLP collector endpoint, e.g. "localhost:4317".
	Endpoint string

	Insecure bool

	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64
}

func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "ixfimportd",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
