// Package config handles loading and validating the Home Assistant bridge
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (hub token, MQTT password, API token) should be set
//     via environment variables
//   - The config file should have restricted permissions (0600)
//   - Stringer and JSON marshalling redact secrets so configs can be logged
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Hub.BaseURL())
package config
