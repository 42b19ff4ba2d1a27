package events

// PublishServerCreated publishes a server created event.
func (b *Bus) PublishServerCreated(serverID, name, directory string) {
	b.Publish(Event{
		Type:     EventServerCreated,
		Source:   "registry",
		ServerID: serverID,
		Data: map[string]interface{}{
			"name":      name,
			"directory": directory,
		},
	})
}

// PublishServerInitialized publishes a first-time setup completion event.
func (b *Bus) PublishServerInitialized(serverID string) {
	b.Publish(Event{
		Type:     EventServerInitialized,
		Source:   "orchestrator",
		ServerID: serverID,
		Data:     map[string]interface{}{},
	})
}

// PublishServerDeleted publishes a server deleted event.
func (b *Bus) PublishServerDeleted(serverID, name string) {
	b.Publish(Event{
		Type:     EventServerDeleted,
		Source:   "orchestrator",
		ServerID: serverID,
		Data: map[string]interface{}{
			"name": name,
		},
	})
}

// PublishStateChanged publishes a lifecycle transition.
func (b *Bus) PublishStateChanged(serverID, from, to, reason string) {
	b.Publish(Event{
		Type:     EventServerStateChanged,
		Source:   "orchestrator",
		ServerID: serverID,
		Data: map[string]interface{}{
			"from":   from,
			"to":     to,
			"reason": reason,
		},
	})
}

// PublishStartFailed publishes a failed launch with its cause and the
// underlying error text.
func (b *Bus) PublishStartFailed(serverID, cause, detail string) {
	b.Publish(Event{
		Type:     EventServerStartFailed,
		Source:   "orchestrator",
		ServerID: serverID,
		Data: map[string]interface{}{
			"cause":  cause,
			"detail": detail,
		},
	})
}

// PublishRCONCommand publishes an executed RCON command and its outcome.
func (b *Bus) PublishRCONCommand(serverID, command, outcome string) {
	b.Publish(Event{
		Type:     EventRCONCommand,
		Source:   "orchestrator",
		ServerID: serverID,
		Data: map[string]interface{}{
			"command": command,
			"outcome": outcome,
		},
	})
}
