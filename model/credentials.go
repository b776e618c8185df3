package model

// Credentials is an opaque secret blob referenced by nodes through
// CredentialsId. Each action decodes Data into its own typed shape.
type Credentials struct {
	Id   string         `json:"id"`
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

type MemoryRole string

const MEMORY_ROLE_USER MemoryRole = "user"
const MEMORY_ROLE_ASSISTANT MemoryRole = "assistant"

// MemoryTurn is one entry of the per-workflow conversation memory.
type MemoryTurn struct {
	Role    MemoryRole `json:"role"`
	Content string     `json:"content"`
	Ts      int64      `json:"ts"`
}
