package valkey

import "github.com/redis/rueidis"

// NewStoreForTest creates a Valkey-flavoured Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c, driver: DriverValkey}
}
