// Package config loads config.yaml for HomeNet.
//
// Values come from Default, then the YAML file, then HOMENET_*
// environment variables (for example HOMENET_SERVER_PORT or
// HOMENET_MQTT_PASSWORD). Validate collects every problem into one error.
//
// Only the line transport is on by default; the HTTP API, command
// history, MQTT and InfluxDB sections each have an enabled flag.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	addr := cfg.ServerAddress()
package config
