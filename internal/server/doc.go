// Package server is the line-oriented TCP transport in front of the
// dispatcher.
//
// Each accepted connection gets its own goroutine. A worker reads one
// request per line (LF terminated, a trailing CR is dropped), passes it to
// the Handler, and writes the reply followed by a blank line:
//
//	-> GET /devices/list\n
//	<- Connected devices:\n
//	<- Light [192.168.1.10]: OFF (Brightness: 100%)\n
//	<- ...\n
//	<- \n
//
// A worker ends when its peer disconnects, on any read or write error, or
// when a line exceeds the configured maximum. None of these affect other
// connections. Close stops accepting, closes live connections and waits
// for every worker to return.
package server
