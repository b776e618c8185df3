package action

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
	"github.com/stitchwork/stitch/template"
	"github.com/stitchwork/stitch/util"
)

const defaultGeminiModel = "gemini-2.0-flash"

const geminiSystemPrompt = `You are a helpful AI assistant inside a workflow automation platform.
Always provide clear, helpful responses.
When asked to return JSON, return only valid JSON without extra text or backticks.`

type geminiConfig struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
	Memory bool   `json:"memory"`
}

type geminiCredentials struct {
	GeminiApiKey string `json:"geminiApiKey"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GeminiResult carries the model output. Text is either the raw string
// or, when the model returned valid JSON, the decoded value.
type GeminiResult struct {
	Text        any    `json:"text"`
	Query       string `json:"query"`
	Model       string `json:"model"`
	GeneratedAt string `json:"generatedAt"`
}

func (r GeminiResult) Fields() map[string]any {
	return map[string]any{
		"text":        r.Text,
		"query":       r.Query,
		"model":       r.Model,
		"generatedAt": r.GeneratedAt,
	}
}

var codeFencePattern = regexp.MustCompile("(?i)^```json\\s*|```$")

var _ Action = new(GeminiAction)

// GeminiAction calls the Google generative language API. Nodes that set
// memory=true in their config converse across runs of the same
// workflow through the conversation memory store.
type GeminiAction struct {
	credentials persistence.CredentialsDao
	memory      persistence.ConversationMemory
	client      *resty.Client
}

func NewGeminiAction(credentials persistence.CredentialsDao, memory persistence.ConversationMemory, client *resty.Client) *GeminiAction {
	return &GeminiAction{
		credentials: credentials,
		memory:      memory,
		client:      client,
	}
}

func (a *GeminiAction) Type() model.NodeType {
	return model.NODE_TYPE_GEMINI
}

func (a *GeminiAction) Execute(ctx context.Context, node model.Node, execCtx *model.ExecutionContext, workflowId string) (model.NodeResult, error) {
	conf, err := util.ConvertMap[geminiConfig](node.Config)
	if err != nil {
		return nil, err
	}
	if conf.Model == "" {
		conf.Model = defaultGeminiModel
	}
	storedCreds, err := a.credentials.Get(ctx, node.CredentialsId)
	if err != nil {
		return nil, fmt.Errorf("gemini credentials not found")
	}
	creds, err := util.ConvertMap[geminiCredentials](storedCreds.Data)
	if err != nil {
		return nil, err
	}
	if creds.GeminiApiKey == "" {
		return nil, fmt.Errorf("missing gemini api key")
	}

	prompt := template.Resolve(conf.Prompt, execCtx)

	var history []model.MemoryTurn
	if conf.Memory && workflowId != "" {
		history, err = a.memory.Read(ctx, workflowId)
		if err != nil {
			return nil, err
		}
	}

	req := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: geminiSystemPrompt}}},
	}
	for _, turn := range history {
		role := "user"
		if turn.Role == model.MEMORY_ROLE_ASSISTANT {
			role = "model"
		}
		req.Contents = append(req.Contents, geminiContent{Role: role, Parts: []geminiPart{{Text: turn.Content}}})
	}
	req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: prompt}}})

	var geminiResp geminiResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", creds.GeminiApiKey).
		SetBody(req).
		SetResult(&geminiResp).
		Post(fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", conf.Model))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		if err := json.Unmarshal(resp.Body(), &geminiResp); err == nil && geminiResp.Error != nil {
			return nil, fmt.Errorf("gemini api error: %s", geminiResp.Error.Message)
		}
		return nil, fmt.Errorf("gemini api error: %s", resp.Status())
	}
	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}
	var rawText strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		rawText.WriteString(part.Text)
	}
	text := strings.TrimSpace(codeFencePattern.ReplaceAllString(strings.TrimSpace(rawText.String()), ""))

	if conf.Memory && workflowId != "" {
		if err := a.memory.Append(ctx, workflowId, model.MEMORY_ROLE_USER, prompt); err != nil {
			return nil, err
		}
		if err := a.memory.Append(ctx, workflowId, model.MEMORY_ROLE_ASSISTANT, text); err != nil {
			return nil, err
		}
	}

	result := GeminiResult{
		Text:        text,
		Query:       prompt,
		Model:       conf.Model,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		if _, ok := parsed.(map[string]any); ok {
			result.Text = parsed
		}
	}
	return result, nil
}
