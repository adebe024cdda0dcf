package mcp

// ToolDefinition describes one MCP tool.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
	ReadOnly    bool
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Chat windows
		{
			Name:        "list_sessions",
			Description: "List chat windows with their documents; the active one is flagged",
			InputSchema: objectSchema(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "refresh_sessions",
			Description: "Reload chat windows from the backend and select the most recent one",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "create_session",
			Description: "Create a new chat window and make it active",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "select_session",
			Description: "Make a chat window active; clears the visible conversation",
			InputSchema: objectSchema(map[string]any{
				"session_id": stringProp("Chat window ID"),
			}, "session_id"),
		},
		{
			Name:        "delete_session",
			Description: "Delete a chat window and its documents; deleting the active one activates the first remaining window",
			InputSchema: objectSchema(map[string]any{
				"session_id": stringProp("Chat window ID"),
			}, "session_id"),
		},
		{
			Name:        "rename_session",
			Description: "Set the title of a chat window",
			InputSchema: objectSchema(map[string]any{
				"session_id": stringProp("Chat window ID"),
				"title":      stringProp("New title"),
			}, "session_id", "title"),
		},

		// Documents
		{
			Name:        "list_documents",
			Description: "List documents attached to a chat window",
			InputSchema: objectSchema(map[string]any{
				"session_id": stringProp("Chat window ID (omit for the active window)"),
			}),
			ReadOnly: true,
		},
		{
			Name:        "upload_documents",
			Description: "Upload documents into the active chat window. The first document of an empty window becomes its title",
			InputSchema: objectSchema(map[string]any{
				"paths": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Local file paths to upload",
				},
				"files": map[string]any{
					"type": "array",
					"items": objectSchema(map[string]any{
						"name":    stringProp("File name"),
						"content": stringProp("Base64 encoded file content"),
					}, "name", "content"),
					"description": "Inline files to upload",
				},
			}),
		},
		{
			Name:        "delete_document",
			Description: "Remove a document from a chat window",
			InputSchema: objectSchema(map[string]any{
				"session_id": stringProp("Chat window ID (omit for the active window)"),
				"doc_id":     stringProp("Document UUID"),
			}, "doc_id"),
		},

		// Conversation
		{
			Name:        "ask",
			Description: "Ask a question against the documents of the active chat window",
			InputSchema: objectSchema(map[string]any{
				"question": stringProp("Question text"),
			}, "question"),
		},
		{
			Name:        "get_messages",
			Description: "Get the visible conversation of the active chat window",
			InputSchema: objectSchema(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "get_evidence",
			Description: "Get the source passages behind an answer",
			InputSchema: objectSchema(map[string]any{
				"message_id": stringProp("Message ID from get_messages or ask"),
			}, "message_id"),
			ReadOnly: true,
		},

		// History
		{
			Name:        "get_recent_activity",
			Description: "Get the local activity journal, newest first",
			InputSchema: objectSchema(map[string]any{
				"session_id": stringProp("Filter by chat window ID"),
				"type":       stringProp("Filter by activity type"),
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum entries (default 50)",
				},
				"offset": map[string]any{
					"type":        "integer",
					"description": "Entries to skip",
				},
			}),
			ReadOnly: true,
		},
	}
}
