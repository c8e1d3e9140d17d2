package services

import (
	"github.com/pombredanne/pullpo/internal/domain"
)

// IdentityCache canonicalizes user identities within a single sync run. Every
// observed user with the same login resolves to the same *domain.User, so
// enrichments applied through one reference (commit metadata filling in a
// name or email) are visible to every other reference before the batch is
// flushed.
type IdentityCache struct {
	users map[string]*domain.User
}

// NewIdentityCache creates an empty IdentityCache
func NewIdentityCache() *IdentityCache {
	return &IdentityCache{
		users: make(map[string]*domain.User),
	}
}

// Resolve returns the canonical pointer for u's login, registering u on first
// sight. Fields missing on the canonical record are filled from u; fields
// already present are never overwritten. Resolve(nil) returns nil, as does a
// user without a login (deleted accounts show up that way).
func (c *IdentityCache) Resolve(u *domain.User) *domain.User {
	if u == nil || u.Login == "" {
		return nil
	}

	canonical, ok := c.users[u.Login]
	if !ok {
		clone := *u
		c.users[u.Login] = &clone
		return &clone
	}

	if canonical.Name == "" && u.Name != "" {
		canonical.Name = u.Name
	}
	if canonical.Email == "" && u.Email != "" {
		canonical.Email = u.Email
	}
	if canonical.AvatarURL == "" && u.AvatarURL != "" {
		canonical.AvatarURL = u.AvatarURL
	}
	if canonical.URL == "" && u.URL != "" {
		canonical.URL = u.URL
	}
	if canonical.Type == "" && u.Type != "" {
		canonical.Type = u.Type
	}
	return canonical
}

// Enrich fills the canonical record's name and email for login when they are
// still empty. Used with commit metadata, which carries the git identity the
// profile API often omits. Unknown logins are ignored; enrichment never
// creates an identity on its own.
func (c *IdentityCache) Enrich(login, name, email string) {
	canonical, ok := c.users[login]
	if !ok {
		return
	}
	if canonical.Name == "" && name != "" {
		canonical.Name = name
	}
	if canonical.Email == "" && email != "" {
		canonical.Email = email
	}
}

// Len returns the number of distinct identities seen so far
func (c *IdentityCache) Len() int {
	return len(c.users)
}
