package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

// LeadHandler consumes a captured lead; usecase.FanOutLeadUseCase satisfies it.
type LeadHandler interface {
	Execute(ctx context.Context, lead *entity.LeadEntry) error
}

type consumeChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel consumeChannel
	Handler LeadHandler
}

func NewWorker(ch consumeChannel, handler LeadHandler) *Worker {
	return &Worker{Channel: ch, Handler: handler}
}

// Start consumes queueName until ctx is done or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return eris.Wrapf(err, "queue: consume %s", queueName)
	}

	zap.L().Info("lead worker consuming", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("lead worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return eris.New("queue: delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

// handle acks on success. Malformed payloads and handler errors are
// dead-lettered without requeue.
func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var lead entity.LeadEntry
	if err := json.Unmarshal(d.Body, &lead); err != nil {
		zap.L().Error("lead.captured payload is not valid json", zap.Error(err))
		d.Nack(false, false)
		return
	}

	logger := zap.L().With(zap.String("lead_id", lead.ID))

	if err := w.Handler.Execute(ctx, &lead); err != nil {
		logger.Error("lead fan-out failed", zap.Error(err))
		d.Nack(false, false)
		return
	}

	logger.Debug("lead fan-out done")
	d.Ack(false)
}
