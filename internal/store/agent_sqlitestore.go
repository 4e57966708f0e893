package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

type AgentSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewAgentSQLiteStore(rdb, rwdb *sql.DB) *AgentSQLiteStore {
	return &AgentSQLiteStore{rdb, rwdb}
}

func (store *AgentSQLiteStore) CreateAgent(
	ctx context.Context,
	name string,
	description *string,
	systemPrompt, model string,
) (*Agent, error) {
	a := &Agent{
		AgentID:      uuid.NewString(),
		Name:         name,
		Description:  description,
		SystemPrompt: systemPrompt,
		Model:        model,
	}
	query := `insert into agents (
		agent_id,
		name,
		description,
		system_prompt,
		model
	)
	values ($1, $2, $3, $4, $5)
	returning created_on, updated_on`
	err := sqlscan.Get(
		ctx, store.rwdb, a, query,
		a.AgentID,
		a.Name,
		a.Description,
		a.SystemPrompt,
		a.Model,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (store *AgentSQLiteStore) ReadAgentByID(ctx context.Context, id string) (*Agent, error) {
	a := &Agent{}
	query := `select * from agents where agent_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, a, query, id); err != nil {
		return nil, err
	}
	return a, nil
}

func (store *AgentSQLiteStore) ReadAgentByName(ctx context.Context, name string) (*Agent, error) {
	a := &Agent{}
	query := `select * from agents where name = $1`
	if err := sqlscan.Get(ctx, store.rdb, a, query, name); err != nil {
		return nil, err
	}
	return a, nil
}

func (store *AgentSQLiteStore) UpdateAgent(
	ctx context.Context,
	agentID string,
	name string,
	description *string,
	systemPrompt, model string,
) error {
	query := `update agents
	set name = $1,
		description = $2,
		system_prompt = $3,
		model = $4,
		updated_on = current_timestamp
	where agent_id = $5`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		name,
		description,
		systemPrompt,
		model,
		agentID,
	)
	return err
}

func (store *AgentSQLiteStore) DeleteAgent(ctx context.Context, id string) error {
	query := "delete from agents where agent_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *AgentSQLiteStore) ListAgents(ctx context.Context) ([]*Agent, error) {
	query := `select * from agents order by name`
	agents := make([]*Agent, 0)
	err := sqlscan.Select(ctx, store.rdb, &agents, query)
	return agents, err
}
