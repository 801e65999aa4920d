// Package config loads the healthaccess configuration file.
//
// A file is YAML. Before decoding, `${VAR}` references are expanded from the
// environment and a reference to an unset variable is an error; `$$` emits a
// literal `$`. LoadEnv can seed the environment from .env files first.
//
//	store:
//	  driver: sqlite
//	  path: ${HOME}/.healthaccess/samples.db
//	  location: Europe/Berlin
//	orchestrator:
//	  max_concurrent: 4
//	resilience:
//	  timeout: 2s
//	  max_attempts: 3
//	gateway:
//	  unsupported: [blood_type]
//
// Missing sections take the values from Default.
package config
