// Package config handles loading and validating the door twin configuration.
//
// This package manages:
//   - Documented defaults for every setting
//   - Optional YAML configuration file (DOORTWIN_CONFIG)
//   - Overrides from environment variables (MQTT_HOST, MQTT_PORT, ...)
//   - Validation of ranges and required fields
//
// Security Considerations:
//   - TLS_INSECURE=true disables broker hostname verification. It exists for
//     lab brokers whose certificate names do not match; never use it in the field.
//   - InfluxDB tokens should be supplied via INFLUXDB_TOKEN, not the file.
//
// Usage:
//
//	cfg, err := config.Load(os.Getenv("DOORTWIN_CONFIG"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Topic)
package config
