package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BatchJobPayload is the whole message: the worker reloads everything else
// from the database, so a redelivered message can never carry stale state.
type BatchJobPayload struct {
	BatchJobID string `json:"batch_job_id"`
	FileName   string `json:"file_name"`
	Origin     string `json:"origin"`
}

type ProducerInterface interface {
	PublishBatchJob(ctx context.Context, payload BatchJobPayload) error
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQProducer) PublishBatchJob(ctx context.Context, payload BatchJobPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal batch payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // Survives a broker restart
		},
	)
	if err != nil {
		return fmt.Errorf("publish batch job: %w", err)
	}

	return nil
}
