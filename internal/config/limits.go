package config

const (
	// MaxStatusPageNameLength is the maximum length for status page names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxStatusPageNameLength = 255

	// MaxSubdomainLength is the maximum length of a status page subdomain (one DNS label).
	MaxSubdomainLength = 63

	// MaxComponentNameLength is the maximum length for component and group names.
	MaxComponentNameLength = 255

	// MaxLayoutItems caps the number of items accepted in one ordering payload.
	// Layouts are edited by hand; anything larger is a client bug.
	MaxLayoutItems = 1000
)
