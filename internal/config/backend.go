package config

// Backend persists settings and secrets for the current platform. Values are
// kept as the raw strings a user typed; the key table parses them on load.
type Backend interface {
	Lookup(key string) (val string, ok bool, err error)
	Store(key, val string) error
	Remove(key string) error

	// Secret and StoreSecret hold keys marked secret in the key table. They
	// never share storage with plain settings.
	Secret(key string) (val string, ok bool, err error)
	StoreSecret(key, val string) error
}
