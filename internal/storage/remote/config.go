package remote

import "time"

// Config holds connection settings for the hosted table
type Config struct {
	// URL is the project base URL, e.g. https://abc.supabase.co
	URL string
	// Key is sent as both apikey and bearer token. A service-role key
	// bypasses row-level security; an anonymous key is subject to it.
	Key string
	// Table is the table registrations are inserted into
	Table string
	// Timeout bounds a single round trip
	Timeout time.Duration
}

// DefaultConfig returns defaults for everything but URL and Key
func DefaultConfig() Config {
	return Config{
		Table:   "registrations",
		Timeout: 10 * time.Second,
	}
}
