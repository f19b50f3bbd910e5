// Package logging provides the structured logger used across HomeNet.
//
// Logger wraps log/slog. Every entry carries service and version
// attributes; subsystems add their own with Component:
//
//	log := logging.New(cfg.Logging, version)
//	srvLog := log.Component("server")
//	srvLog.Info("listening", "address", addr)
//
// The level is shared by a logger and everything derived from it and can
// be changed at runtime with SetLevel.
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
package logging
