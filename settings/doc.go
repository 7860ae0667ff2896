package settings

// settings holds the connection parameters for an SMTP server: host, port,
// credentials and transport security. ConnectionSettings can be built with
// setters, from a flat property map, or from YAML, and is safe to share
// between goroutines.
