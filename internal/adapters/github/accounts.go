package github

import (
	"context"
	"fmt"

	"github.com/pombredanne/pullpo/internal/domain"
)

// FindAccount resolves an owner login. A 404 surfaces as a not-found sync
// error so the enumerator can fail before any scanning begins.
func (c *Client) FindAccount(ctx context.Context, login string) (*domain.Account, error) {
	var raw ghAccount
	url := fmt.Sprintf("%s/users/%s", c.baseURL, login)
	if _, err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}
	return &domain.Account{Login: raw.Login, Type: raw.Type}, nil
}

// GetRepository resolves a single named repository.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*domain.RepositoryRef, error) {
	var raw ghRepository
	if _, err := c.getJSON(ctx, c.repoURL(owner, name, ""), &raw); err != nil {
		return nil, err
	}
	ref := raw.toRef()
	return &ref, nil
}

// ListRepositories enumerates every repository owned by an account.
func (c *Client) ListRepositories(ctx context.Context, owner string) ([]domain.RepositoryRef, error) {
	url := fmt.Sprintf("%s/users/%s/repos?per_page=%d", c.baseURL, owner, perPage)
	raw, err := getAllPages[ghRepository](ctx, c, url)
	if err != nil {
		return nil, err
	}
	refs := make([]domain.RepositoryRef, len(raw))
	for i := range raw {
		refs[i] = raw[i].toRef()
	}
	return refs, nil
}
