// Package config provides server configuration for the rock-paper-scissors
// room server.
//
// The config package handles:
//   - Stock defaults (port 3000, 25s pings, 60s ping timeout)
//   - Loading a .env file before flags and environment are read
//   - Validation of the resolved values
//
// Flags and environment variables are bound in the main package; Config only
// carries the result.
package config
