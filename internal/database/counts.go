package database

import (
	"context"
	"fmt"
)

// RefreshAgentCounts recomputes PropertiesCount for every agent from the
// current listings and writes back the agents whose count changed. It returns
// the number of agents updated.
func RefreshAgentCounts(ctx context.Context, store Store) (int, error) {
	properties, err := store.ListProperties(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list properties: %w", err)
	}
	agents, err := store.ListAgents(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list agents: %w", err)
	}

	counts := make(map[string]int, len(agents))
	for _, p := range properties {
		if p.AgentID != "" {
			counts[p.AgentID]++
		}
	}

	updated := 0
	for i := range agents {
		a := agents[i]
		if a.PropertiesCount == counts[a.ID] {
			continue
		}
		a.PropertiesCount = counts[a.ID]
		if _, err := store.UpdateAgent(ctx, a.ID, &a); err != nil {
			return updated, fmt.Errorf("failed to update agent %s: %w", a.ID, err)
		}
		updated++
	}
	return updated, nil
}
