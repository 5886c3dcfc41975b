// Package config loads voiceid configuration from YAML files, .env files,
// and environment variables using Viper.
//
// Files are searched in the usual cmd/<service>/config.yml and ./config
// locations unless an explicit path is given. Environment variables carrying
// the configured prefix override file values, with underscores mapped onto
// nested keys (VOICEID_DIARIZATION_THRESHOLD sets diarization.threshold).
//
// # Usage
//
//	var cfg AppConfig
//	if err := config.Load("voiceid", &cfg, config.WithConfigFile(path)); err != nil {
//	    return err
//	}
package config
