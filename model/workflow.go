package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type TriggerType string

const TRIGGER_TYPE_MANUAL TriggerType = "Manual"
const TRIGGER_TYPE_WEBHOOK TriggerType = "Webhook"

type NodeType string

const NODE_TYPE_RESEND_EMAIL NodeType = "ResendEmail"
const NODE_TYPE_TELEGRAM NodeType = "Telegram"
const NODE_TYPE_GEMINI NodeType = "Gemini"

// Node is a pure description of one step in a workflow graph. It has no
// behavior of its own; the action package maps its type to an executable
// action at run time.
type Node struct {
	Id            string         `json:"id"`
	Type          NodeType       `json:"type"`
	Config        map[string]any `json:"config"`
	CredentialsId string         `json:"credentialsId"`
}

type Workflow struct {
	Id          string              `json:"id"`
	Title       string              `json:"title"`
	Nodes       NodeSet             `json:"nodes"`
	Connections map[string][]string `json:"connections"`
	TriggerType TriggerType         `json:"triggerType"`
	Enabled     bool                `json:"enabled"`
	WebhookId   string              `json:"webhookId,omitempty"`
}

type WorkflowRunRequest struct {
	Payload map[string]any `json:"payload"`
}

// NodeSet is a map of node id to node that remembers json object key
// order. Two nodes with no dependency between them run in declaration
// order, so decoding must not lose it the way a plain map would.
type NodeSet struct {
	order []string
	nodes map[string]Node
}

func NewNodeSet(nodes ...Node) NodeSet {
	s := NodeSet{nodes: make(map[string]Node)}
	for _, n := range nodes {
		s.Add(n)
	}
	return s
}

func (s *NodeSet) Add(n Node) {
	if s.nodes == nil {
		s.nodes = make(map[string]Node)
	}
	if _, ok := s.nodes[n.Id]; !ok {
		s.order = append(s.order, n.Id)
	}
	s.nodes[n.Id] = n
}

func (s NodeSet) Get(id string) (Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

func (s NodeSet) Ids() []string {
	return s.order
}

func (s NodeSet) Len() int {
	return len(s.order)
}

func (s *NodeSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("nodes must be a json object")
	}
	s.order = nil
	s.nodes = make(map[string]Node)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("invalid node id token %v", keyTok)
		}
		var n Node
		if err := dec.Decode(&n); err != nil {
			return err
		}
		if n.Id == "" {
			n.Id = id
		}
		s.order = append(s.order, id)
		s.nodes[id] = n
	}
	_, err = dec.Token()
	return err
}

func (s NodeSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(s.nodes[id])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
