package config

// ExampleConfig returns an example configuration showing all available
// options. Written verbatim by `zlevels init`.
func ExampleConfig() string {
	return `# zlevels configuration file
# Values can be overridden by environment variables or CLI flags.
#
# The bearer token is NOT configured here. Put it in the environment or
# in a .env file next to this one:
#
#     ZPLACE_TOKEN="Bearer eyJ..."
#
# It is a session credential: never commit it, never share it.

# API base URL
endpoint = "https://place.zevent.fr"

# Canvas dimensions
width = 700
height = 700

# Max in-flight requests. Unbounded concurrency exhausts sockets and
# trips the server's rate limiting; sequential fetching takes hours.
concurrency = 128

# Per-request timeout (seconds)
timeout_seconds = 15

# Retries per coordinate on recoverable errors before recording the
# missing sentinel
retries = 1

# Output artifacts
out_file = "levels.npy"
text_file = "levels.txt"

# Restrict the pass to sectors listed in a JSON file
# sectors_file = "sectors.json"

# Per-run failure logs (supports ~ expansion)
log_dir = "~/.zlevels"

# Logging
log_level = "info"
log_format = "text"
log_timestamps = false
`
}
