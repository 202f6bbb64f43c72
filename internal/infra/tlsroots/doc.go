// Package tlsroots loads TLS material for both ends of the sqld-snapshot
// connection.
//
// ClientConfig builds the CLI's client configuration from the system roots
// and an optional CA bundle. CertReloader serves the daemon's certificate
// and reloads it when the certificate or key file changes on disk, so
// rotated certificates take effect without a restart.
package tlsroots
