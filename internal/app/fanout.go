package app

import (
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-callbridge/internal/config"
	"github.com/xavierca1/ligue-callbridge/internal/infra/integration/kommo"
	"github.com/xavierca1/ligue-callbridge/internal/infra/integration/whatsapp"
	"github.com/xavierca1/ligue-callbridge/internal/infra/mail"
	"github.com/xavierca1/ligue-callbridge/internal/usecase"
)

// NewFanOut wires the CRM and every configured notifier. Unconfigured
// channels are left out entirely.
func NewFanOut(cfg *config.Config) *usecase.FanOutLeadUseCase {
	var crm usecase.CRMClient
	if cfg.Kommo.APIToken != "" && cfg.Kommo.BaseURL != "" {
		crm = kommo.NewClient(cfg.Kommo.APIToken, cfg.Kommo.BaseURL, cfg.Kommo.StatusID)
	}

	var notifiers []usecase.LeadNotifier
	if cfg.Mail.Enabled() {
		notifiers = append(notifiers, mail.NewEmailSender(
			cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.SalesTo,
		))
	}
	if cfg.WhatsApp.Enabled() {
		notifiers = append(notifiers, whatsapp.NewClient(
			cfg.WhatsApp.Token, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.BaseURL, cfg.WhatsApp.SalesPhone, cfg.WhatsApp.TemplateName,
		))
	}

	zap.L().Info("lead fan-out configured",
		zap.Bool("crm", crm != nil),
		zap.Int("notifiers", len(notifiers)),
	)
	return usecase.NewFanOutLeadUseCase(crm, notifiers...)
}
