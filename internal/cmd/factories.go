package cmd

import (
	adaptergithub "github.com/pombredanne/pullpo/internal/adapters/github"
	adapterstorage "github.com/pombredanne/pullpo/internal/adapters/storage"
	"github.com/pombredanne/pullpo/internal/ports"
	"github.com/pombredanne/pullpo/internal/services"
)

// Container holds all dependencies for the application
type Container struct {
	// Services
	SyncService *services.SyncService

	// Adapters
	Source ports.Source
	Store  ports.SyncStore
}

// NewContainer creates a new Container with all dependencies wired
func NewContainer(token, dbPath string) (*Container, error) {
	store, err := adapterstorage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, err
	}

	source := adaptergithub.New(token)
	syncService := services.NewSyncService(source, store)

	return &Container{
		Source:      source,
		Store:       store,
		SyncService: syncService,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
