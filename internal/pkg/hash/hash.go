package hash

import "github.com/spaolacci/murmur3"

// Hash returns the hash value of data.
func Hash(data []byte) uint64 {
	return murmur3.Sum64(data)
}

// AnonUser maps a user id to a stable anonymous identity. Aggregated
// statistics carry only these values, never raw user ids.
func AnonUser(userID string) uint64 {
	return murmur3.Sum64([]byte(userID))
}
