package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch publishChannel
}

func NewProducer(ch publishChannel) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

// PublishLeadCaptured announces a stored lead for asynchronous fan-out.
func (p *RabbitMQProducer) PublishLeadCaptured(ctx context.Context, lead *entity.LeadEntry) error {
	body, err := json.Marshal(lead)
	if err != nil {
		return eris.Wrap(err, "queue: marshal lead")
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    lead.ID,
			Timestamp:    lead.CreatedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return eris.Wrap(err, "queue: publish lead.captured")
	}
	return nil
}
