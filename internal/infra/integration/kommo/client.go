// Package kommo creates CRM leads for qualified calls.
package kommo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

type Client struct {
	apiToken   string
	baseURL    string
	statusID   int
	httpClient *http.Client
}

func NewClient(apiToken, baseURL string, statusID int) *Client {
	return &Client{
		apiToken:   apiToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		statusID:   statusID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c.apiToken != "" && c.baseURL != ""
}

// CreateLead creates (or reuses) the contact, then the lead, then a note with
// the qualification details. It returns the Kommo lead id.
func (c *Client) CreateLead(ctx context.Context, lead *entity.LeadEntry) (int, error) {
	if !c.Configured() {
		return 0, eris.New("kommo: not configured")
	}

	contactID, err := c.findOrCreateContact(ctx, lead)
	if err != nil {
		return 0, eris.Wrap(err, "kommo: contact")
	}

	req := []leadRequest{{
		Name:     leadTitle(lead),
		StatusID: c.statusID,
		Embedded: leadEmbedded{
			Tags:     []tag{{Name: "voice_agent"}, {Name: string(lead.CallStatus)}},
			Contacts: []idOnly{{ID: contactID}},
		},
	}}

	var result embeddedResponse
	if err := c.post(ctx, "/leads", req, &result); err != nil {
		return 0, eris.Wrap(err, "kommo: create lead")
	}
	if len(result.Embedded.Leads) == 0 {
		return 0, eris.New("kommo: lead not created")
	}
	leadID := result.Embedded.Leads[0].ID

	if note := qualificationNote(lead); note != "" {
		notes := []noteRequest{{EntityID: leadID, NoteType: "common", Params: noteParams{Text: note}}}
		if err := c.post(ctx, "/leads/notes", notes, nil); err != nil {
			zap.L().Warn("kommo: lead created but note failed", zap.Int("crm_lead_id", leadID), zap.Error(err))
		}
	}

	return leadID, nil
}

func (c *Client) findOrCreateContact(ctx context.Context, lead *entity.LeadEntry) (int, error) {
	if lead.Email != nil {
		if id, err := c.findContact(ctx, *lead.Email); err == nil && id > 0 {
			return id, nil
		}
	}
	return c.createContact(ctx, lead)
}

func (c *Client) findContact(ctx context.Context, query string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/contacts?query="+url.QueryEscape(query), nil)
	if err != nil {
		return 0, err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Kommo answers 204 when nothing matches.
	if resp.StatusCode == http.StatusNoContent {
		return 0, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, eris.Errorf("search contact: status %d", resp.StatusCode)
	}

	var result embeddedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}
	if len(result.Embedded.Contacts) > 0 {
		return result.Embedded.Contacts[0].ID, nil
	}
	return 0, nil
}

func (c *Client) createContact(ctx context.Context, lead *entity.LeadEntry) (int, error) {
	contact := contactRequest{Name: deref(lead.FullName, "Unknown caller")}
	if lead.Email != nil {
		contact.CustomFields = append(contact.CustomFields, customField{
			FieldCode: "EMAIL",
			Values:    []fieldValue{{Value: *lead.Email, EnumCode: "WORK"}},
		})
	}

	var result embeddedResponse
	if err := c.post(ctx, "/contacts", []contactRequest{contact}, &result); err != nil {
		return 0, err
	}
	if len(result.Embedded.Contacts) == 0 {
		return 0, eris.New("contact id missing from response")
	}
	return result.Embedded.Contacts[0].ID, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return eris.Errorf("POST %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) addAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiToken))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func leadTitle(lead *entity.LeadEntry) string {
	who := deref(lead.FullName, "")
	if who == "" {
		who = deref(lead.Company, "Voice lead")
	}
	if lead.UseCase != nil {
		return who + " - " + *lead.UseCase
	}
	return who
}

func qualificationNote(lead *entity.LeadEntry) string {
	var lines []string
	add := func(label string, v *string) {
		if v != nil {
			lines = append(lines, label+": "+*v)
		}
	}
	add("Company", lead.Company)
	add("Use case", lead.UseCase)
	add("Budget", lead.Budget)
	add("Timeline", lead.Timeline)
	if len(lines) == 0 {
		return ""
	}
	lines = append(lines, fmt.Sprintf("Call duration: %ds", lead.CallDurationSec))
	return strings.Join(lines, "\n")
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
