package store

import (
	"context"
	"time"
)

type Agent struct {
	AgentID      string
	Name         string
	Description  *string
	SystemPrompt string
	Model        string
	CreatedOn    time.Time
	UpdatedOn    time.Time
}

type AgentStore interface {
	CreateAgent(context.Context, string, *string, string, string) (*Agent, error)
	ReadAgentByID(context.Context, string) (*Agent, error)
	ReadAgentByName(context.Context, string) (*Agent, error)
	UpdateAgent(context.Context, string, string, *string, string, string) error
	DeleteAgent(context.Context, string) error
	ListAgents(context.Context) ([]*Agent, error)
}
