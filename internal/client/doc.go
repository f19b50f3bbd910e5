// Package client talks to the HomeNet line server.
//
// Client sends one request line at a time and reads the reply up to the
// blank-line terminator. Shell wraps a Client in an interactive prompt
// with line editing and history.
package client
