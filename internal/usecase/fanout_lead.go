package usecase

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

// FanOutLeadUseCase pushes a stored lead to the CRM and notifiers. Every
// channel is best-effort; failures are logged and never returned.
type FanOutLeadUseCase struct {
	CRM       CRMClient
	Notifiers []LeadNotifier
}

func NewFanOutLeadUseCase(crm CRMClient, notifiers ...LeadNotifier) *FanOutLeadUseCase {
	active := make([]LeadNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &FanOutLeadUseCase{CRM: crm, Notifiers: active}
}

// Execute only fans out completed calls.
func (uc *FanOutLeadUseCase) Execute(ctx context.Context, lead *entity.LeadEntry) error {
	logger := zap.L().With(zap.String("lead_id", lead.ID), zap.String("call_status", string(lead.CallStatus)))

	if lead.CallStatus != entity.CallStatusCompleted {
		logger.Debug("fan-out skipped for non-completed call")
		return nil
	}

	var g errgroup.Group

	if uc.CRM != nil {
		g.Go(func() error {
			crmID, err := uc.CRM.CreateLead(ctx, lead)
			if err != nil {
				logger.Warn("crm lead creation failed", zap.Error(err))
				return nil
			}
			logger.Info("lead created in crm", zap.Int("crm_lead_id", crmID))
			return nil
		})
	}

	for _, n := range uc.Notifiers {
		g.Go(func() error {
			if err := n.NotifyNewLead(ctx, lead); err != nil {
				logger.Warn("lead notification failed", zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}

// DirectPublisher runs the fan-out in-process when no broker is configured.
type DirectPublisher struct {
	FanOut *FanOutLeadUseCase
}

func (p *DirectPublisher) PublishLeadCaptured(ctx context.Context, lead *entity.LeadEntry) error {
	return p.FanOut.Execute(ctx, lead)
}
