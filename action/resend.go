package action

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
	"github.com/stitchwork/stitch/template"
	"github.com/stitchwork/stitch/util"
)

const resendEndpoint = "https://api.resend.com/emails"
const defaultFromAddress = "onboarding@resend.dev"

type resendConfig struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type resendCredentials struct {
	ApiKey           string `json:"apiKey"`
	ResendDomainMail string `json:"resendDomainMail"`
}

type EmailResult struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (r EmailResult) Fields() map[string]any {
	return map[string]any{
		"to":      r.To,
		"subject": r.Subject,
		"body":    r.Body,
	}
}

var _ Action = new(ResendEmailAction)

type ResendEmailAction struct {
	credentials persistence.CredentialsDao
	client      *resty.Client
}

func NewResendEmailAction(credentials persistence.CredentialsDao, client *resty.Client) *ResendEmailAction {
	return &ResendEmailAction{
		credentials: credentials,
		client:      client,
	}
}

func (a *ResendEmailAction) Type() model.NodeType {
	return model.NODE_TYPE_RESEND_EMAIL
}

func (a *ResendEmailAction) Execute(ctx context.Context, node model.Node, execCtx *model.ExecutionContext, workflowId string) (model.NodeResult, error) {
	conf, err := util.ConvertMap[resendConfig](node.Config)
	if err != nil {
		return nil, err
	}
	storedCreds, err := a.credentials.Get(ctx, node.CredentialsId)
	if err != nil {
		return nil, fmt.Errorf("email credentials not found")
	}
	creds, err := util.ConvertMap[resendCredentials](storedCreds.Data)
	if err != nil {
		return nil, err
	}
	if creds.ApiKey == "" {
		return nil, fmt.Errorf("email api key missing in credentials")
	}
	from := creds.ResendDomainMail
	if from == "" {
		from = defaultFromAddress
	}

	to := template.Resolve(conf.To, execCtx)
	subject := template.Resolve(conf.Subject, execCtx)
	body := template.Resolve(conf.Body, execCtx)

	resp, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(creds.ApiKey).
		SetBody(map[string]any{
			"from":    from,
			"to":      to,
			"subject": subject,
			"html":    body,
		}).
		Post(resendEndpoint)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("resend api error: %s", resp.String())
	}
	return EmailResult{To: to, Subject: subject, Body: body}, nil
}
