package store

import "context"

// Store is the persistent key/value dictionary every stateful component is
// written against. Values are JSON documents; the store itself never inspects
// them. Get reports absence through the boolean, not through an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Three logical namespaces are multiplexed over the single key space: the
// global user list, the global session, and one herd dataset per user.
const (
	UsersKey   = "vimacontrol_users"
	SessionKey = "vimacontrol_session"

	herdKeyPrefix = "vimacontrol_data_"
)

// HerdKey derives the herd dataset key for a user id.
func HerdKey(userID string) string {
	return herdKeyPrefix + userID
}
