package database

import (
	"context"
	"fmt"

	"portalfetch/models"
)

// Publisher loads each normalized table into Config.Table, replacing what
// the previous run left there
type Publisher struct {
	Config Config
}

// NewPublisher returns a Publisher for config
func NewPublisher(config Config) *Publisher {
	return &Publisher{Config: config}
}

// Publish connects, replaces the table and disconnects
func (p *Publisher) Publish(ctx context.Context, table *models.Table) (int, error) {
	db, err := Connect(p.Config)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to %s database %s on %s: %w",
			p.Config.Type, p.Config.Database, p.Config.Host, err)
	}
	defer Close(db)

	n, err := LoadTable(db.WithContext(ctx), p.Config.Table, table)
	if err != nil {
		return 0, err
	}
	return n, nil
}
