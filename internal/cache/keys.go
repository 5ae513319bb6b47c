package cache

import (
	"fmt"
	"strings"
)

// Cache domains. Writes invalidate a whole domain by wildcard rather than
// patching individual entries.
const (
	DomainPosts      = "posts"
	DomainFollowers  = "user:followers"
	DomainFollowing  = "user:following"
	DomainUserSearch = "searchUsers"
)

// Keyspace derives namespaced cache keys. The prefix carries the product name
// and deployment environment so several environments can share one Redis.
type Keyspace struct {
	prefix string
}

// NewKeyspace builds a Keyspace for the given environment, e.g.
// "pulsefeed:prod:".
func NewKeyspace(namespace, environment string) Keyspace {
	namespace = strings.TrimSpace(namespace)
	environment = strings.TrimSpace(environment)
	if namespace == "" {
		namespace = "pulsefeed"
	}
	if environment == "" {
		environment = "dev"
	}
	return Keyspace{prefix: namespace + ":" + environment + ":"}
}

// FeedPage keys an offset-paginated feed page.
func (k Keyspace) FeedPage(limit, offset int) string {
	return fmt.Sprintf("%s%s:limit=%d:offset=%d", k.prefix, DomainPosts, limit, offset)
}

// FeedCursor keys a cursor-paginated feed page.
func (k Keyspace) FeedCursor(cursor uint, limit int) string {
	return fmt.Sprintf("%s%s:cursor=%d:limit=%d", k.prefix, DomainPosts, cursor, limit)
}

// PostsPattern matches every cached feed page.
func (k Keyspace) PostsPattern() string {
	return k.prefix + DomainPosts + ":*"
}

// Followers keys a user's cached follower list.
func (k Keyspace) Followers(userID string) string {
	return k.prefix + DomainFollowers + ":" + userID
}

// FollowersPattern matches every cached follower entry for a user.
func (k Keyspace) FollowersPattern(userID string) string {
	return k.prefix + DomainFollowers + ":" + userID + "*"
}

// Following keys a user's cached following list.
func (k Keyspace) Following(userID string) string {
	return k.prefix + DomainFollowing + ":" + userID
}

// FollowingPattern matches every cached following entry for a user.
func (k Keyspace) FollowingPattern(userID string) string {
	return k.prefix + DomainFollowing + ":" + userID + "*"
}

// UserSearch keys a cached search result for a normalized query.
func (k Keyspace) UserSearch(normalizedQuery string) string {
	return k.prefix + DomainUserSearch + ":q=" + normalizedQuery
}

// UserSearchPattern matches every cached user-search result.
func (k Keyspace) UserSearchPattern() string {
	return k.prefix + DomainUserSearch + ":*"
}
