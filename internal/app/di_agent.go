package app

import (
	"fmt"
	"sync"

	"github.com/onekeel/swarm/internal/agent/hub"
)

// agentComponents holds the in-process agent communication hub and the
// bridge that feeds it execution lifecycle events.
type agentComponents struct {
	agentHub    *hub.Hub
	hubNotifier *hub.ExecutionNotifier

	agentHubInit    sync.Once
	hubNotifierInit sync.Once
}

// AgentHub returns the agent communication hub with the realtime channel
// attached as a forwarder, so hub traffic reaches WebSocket clients.
func (c *Container) AgentHub() (*hub.Hub, error) {
	var err error
	c.agentHubInit.Do(func() {
		c.agentHub, err = c.initAgentHub()
		if err != nil {
			c.initErrors["agentHub"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["agentHub"]; exists {
		return nil, storedErr
	}
	return c.agentHub, nil
}

// HubNotifier returns the execution notifier that announces finished
// executions on the hub.
func (c *Container) HubNotifier() (*hub.ExecutionNotifier, error) {
	var err error
	c.hubNotifierInit.Do(func() {
		agentHub, hubErr := c.AgentHub()
		if hubErr != nil {
			err = hubErr
			c.initErrors["hubNotifier"] = hubErr
			return
		}
		c.hubNotifier = hub.NewExecutionNotifier(agentHub)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["hubNotifier"]; exists {
		return nil, storedErr
	}
	return c.hubNotifier, nil
}

// initAgentHub creates the hub and attaches the realtime forwarder.
func (c *Container) initAgentHub() (*hub.Hub, error) {
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for agent hub: %w", err)
	}

	agentHub := hub.NewHub(c.Logger(), businessMetrics)

	realtimeChannel, err := c.RealtimeChannel()
	if err != nil {
		return nil, fmt.Errorf("failed to get realtime channel for agent hub: %w", err)
	}
	agentHub.AddForwarder(realtimeChannel)

	return agentHub, nil
}
