package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

const templateLanguage = "en_US"

type Client struct {
	accessToken  string
	phoneID      string
	baseURL      string
	salesPhone   string
	templateName string
	httpClient   *http.Client
}

func NewClient(accessToken, phoneID, baseURL, salesPhone, templateName string) *Client {
	return &Client{
		accessToken:  accessToken,
		phoneID:      phoneID,
		baseURL:      strings.TrimRight(baseURL, "/"),
		salesPhone:   salesPhone,
		templateName: templateName,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyNewLead pings the sales phone with a templated summary of the lead.
func (c *Client) NotifyNewLead(ctx context.Context, lead *entity.LeadEntry) error {
	if c.salesPhone == "" {
		return eris.New("whatsapp: sales phone not configured")
	}
	return c.SendMessage(ctx, SendMessageInput{
		PhoneNumber:  c.salesPhone,
		TemplateName: c.templateName,
		Parameters: []string{
			valueOr(lead.FullName, "Unknown caller"),
			valueOr(lead.Company, "-"),
			valueOr(lead.UseCase, "-"),
			valueOr(lead.Budget, "-"),
			strconv.Itoa(lead.CallDurationSec) + "s",
		},
	})
}

func (c *Client) SendMessage(ctx context.Context, input SendMessageInput) error {
	if c.accessToken == "" || c.phoneID == "" {
		return eris.New("whatsapp: access token or phone id not configured")
	}

	payload := templatePayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               input.PhoneNumber,
		Type:             "template",
		Template: template{
			Name:     input.TemplateName,
			Language: language{Code: templateLanguage},
			Components: []component{{
				Type:       "body",
				Parameters: toParameters(input.Parameters),
			}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "whatsapp: marshal payload")
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "whatsapp: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "whatsapp: send")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var result SendMessageResponse
	_ = json.Unmarshal(respBody, &result)
	if result.Error != nil {
		return eris.Errorf("whatsapp: %s (code %d)", result.Error.Message, result.Error.Code)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return eris.Errorf("whatsapp: status %d", resp.StatusCode)
	}

	messageID := ""
	if len(result.Messages) > 0 {
		messageID = result.Messages[0].ID
	}
	zap.L().Info("whatsapp message sent",
		zap.String("template", input.TemplateName),
		zap.String("message_id", messageID),
	)
	return nil
}

func toParameters(params []string) []parameter {
	out := make([]parameter, 0, len(params))
	for _, p := range params {
		out = append(out, parameter{Type: "text", Text: p})
	}
	return out
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
