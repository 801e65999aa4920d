package config

import "errors"

var (
	// ErrMissingEnv indicates a `${VAR}` reference to an unset variable.
	ErrMissingEnv = errors.New("config: missing required environment variables")

	// ErrUnknownDriver indicates a store driver other than memory or sqlite.
	ErrUnknownDriver = errors.New("config: unknown store driver")

	// ErrMissingPath indicates a sqlite store without a database path.
	ErrMissingPath = errors.New("config: store path required")

	// ErrPersistentFixture indicates a fixture configured for a sqlite store,
	// where replaying it on every fetch would duplicate its samples.
	ErrPersistentFixture = errors.New("config: fixture requires the memory store driver")

	// ErrInvalidLocation indicates a time zone name the system cannot load.
	ErrInvalidLocation = errors.New("config: invalid location")
)
