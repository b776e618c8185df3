package action

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
	"github.com/stitchwork/stitch/template"
	"github.com/stitchwork/stitch/util"
)

type telegramConfig struct {
	Message string `json:"message"`
}

type telegramCredentials struct {
	BotToken string `json:"botToken"`
	ChatId   string `json:"chatId"`
}

type telegramResponse struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
}

type TelegramResult struct {
	Message string `json:"message"`
}

func (r TelegramResult) Fields() map[string]any {
	return map[string]any{"message": r.Message}
}

var _ Action = new(TelegramAction)

type TelegramAction struct {
	credentials persistence.CredentialsDao
	client      *resty.Client
}

func NewTelegramAction(credentials persistence.CredentialsDao, client *resty.Client) *TelegramAction {
	return &TelegramAction{
		credentials: credentials,
		client:      client,
	}
}

func (a *TelegramAction) Type() model.NodeType {
	return model.NODE_TYPE_TELEGRAM
}

func (a *TelegramAction) Execute(ctx context.Context, node model.Node, execCtx *model.ExecutionContext, workflowId string) (model.NodeResult, error) {
	conf, err := util.ConvertMap[telegramConfig](node.Config)
	if err != nil {
		return nil, err
	}
	storedCreds, err := a.credentials.Get(ctx, node.CredentialsId)
	if err != nil {
		return nil, fmt.Errorf("telegram credentials not found")
	}
	creds, err := util.ConvertMap[telegramCredentials](storedCreds.Data)
	if err != nil {
		return nil, err
	}
	if creds.BotToken == "" || creds.ChatId == "" {
		return nil, fmt.Errorf("telegram credentials invalid")
	}

	message := template.Resolve(conf.Message, execCtx)

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"chat_id": creds.ChatId,
			"text":    message,
		}).
		Post(fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", creds.BotToken))
	if err != nil {
		return nil, err
	}
	var tgResp telegramResponse
	if err := json.Unmarshal(resp.Body(), &tgResp); err != nil {
		return nil, fmt.Errorf("telegram returned invalid json: %s", resp.String())
	}
	if !tgResp.Ok {
		return nil, fmt.Errorf("telegram api error: %s", tgResp.Description)
	}
	return TelegramResult{Message: message}, nil
}
