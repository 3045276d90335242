// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Provider Ordering - these keys override the rank order of sources and embeds.
const (
	SourcesOrder           = "sources.order"
	SourcesDisabled        = "sources.disabled"
	SourcesIncludeExternal = "sources.include_external"
	SourcesUpdateURL       = "sources.update_url"
	EmbedsOrder            = "embeds.order"
)

// Resolution Runtime - these keys govern a single resolution call.
const (
	RunnerTarget   = "runner.target"
	RunnerTimeout  = "runner.timeout"
	RunnerValidate = "runner.validate"
)

// Proxy - the rewriting proxy used for CORS and header restricted streams.
const (
	ProxyURL = "proxy.url"
)

// Validator - these keys tune the playability probe.
const (
	ValidatorAttempts = "validator.attempts"
	ValidatorTimeout  = "validator.timeout"
)

// Network - these keys configure the shared transport.
const (
	NetworkTLSFingerprint = "network.tls_fingerprint"
)

// Player - the local player used by "resolve --play".
const (
	PlayerMPVPath = "player.mpv_path"
)

// HTTP Server - these keys configure the serve command.
const (
	ServerAddress = "server.address"
	ServerMetrics = "server.metrics"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
