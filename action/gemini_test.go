package action

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence/inmem"
	"github.com/stretchr/testify/require"
)

func TestGeminiCredentialValidation(t *testing.T) {
	creds := inmem.NewInMemCredentialsDao()
	memory := inmem.NewInMemConversationMemory()
	client := resty.New().SetTimeout(time.Second)
	act := NewGeminiAction(creds, memory, client)
	execCtx := model.NewExecutionContext(nil)

	node := model.Node{Id: "g1", Type: model.NODE_TYPE_GEMINI, Config: map[string]any{"prompt": "hi"}, CredentialsId: "missing"}
	_, err := act.Execute(context.Background(), node, execCtx, "w1")
	require.EqualError(t, err, "gemini credentials not found")

	require.NoError(t, creds.Save(context.Background(), model.Credentials{Id: "empty", Name: "no key", Data: map[string]any{}}))
	node.CredentialsId = "empty"
	_, err = act.Execute(context.Background(), node, execCtx, "w1")
	require.EqualError(t, err, "missing gemini api key")
}

func TestCodeFenceStripping(t *testing.T) {
	for scenario, tc := range map[string]struct {
		raw  string
		want string
	}{
		"fenced json":     {raw: "```json\n{\"a\": 1}\n```", want: "{\"a\": 1}"},
		"uppercase fence": {raw: "```JSON\n{\"a\": 1}\n```", want: "{\"a\": 1}"},
		"no fence":        {raw: "{\"a\": 1}", want: "{\"a\": 1}"},
		"plain text":      {raw: "all good here", want: "all good here"},
	} {
		t.Run(scenario, func(t *testing.T) {
			got := strings.TrimSpace(codeFencePattern.ReplaceAllString(strings.TrimSpace(tc.raw), ""))
			require.Equal(t, tc.want, got)
		})
	}
}

func TestResendCredentialValidation(t *testing.T) {
	creds := inmem.NewInMemCredentialsDao()
	client := resty.New().SetTimeout(time.Second)
	act := NewResendEmailAction(creds, client)
	execCtx := model.NewExecutionContext(nil)

	node := model.Node{Id: "e1", Type: model.NODE_TYPE_RESEND_EMAIL, Config: map[string]any{"to": "x@y.z"}, CredentialsId: "missing"}
	_, err := act.Execute(context.Background(), node, execCtx, "w1")
	require.EqualError(t, err, "email credentials not found")

	require.NoError(t, creds.Save(context.Background(), model.Credentials{Id: "empty", Name: "no key", Data: map[string]any{}}))
	node.CredentialsId = "empty"
	_, err = act.Execute(context.Background(), node, execCtx, "w1")
	require.EqualError(t, err, "email api key missing in credentials")
}

func TestTelegramCredentialValidation(t *testing.T) {
	creds := inmem.NewInMemCredentialsDao()
	client := resty.New().SetTimeout(time.Second)
	act := NewTelegramAction(creds, client)
	execCtx := model.NewExecutionContext(nil)

	node := model.Node{Id: "t1", Type: model.NODE_TYPE_TELEGRAM, Config: map[string]any{"message": "hi"}, CredentialsId: "missing"}
	_, err := act.Execute(context.Background(), node, execCtx, "w1")
	require.EqualError(t, err, "telegram credentials not found")

	require.NoError(t, creds.Save(context.Background(), model.Credentials{Id: "partial", Name: "token only", Data: map[string]any{"botToken": "t"}}))
	node.CredentialsId = "partial"
	_, err = act.Execute(context.Background(), node, execCtx, "w1")
	require.EqualError(t, err, "telegram credentials invalid")
}
