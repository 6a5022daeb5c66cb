package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/brightlink/quotedesk/internal/infra/http/middleware"
	"github.com/brightlink/quotedesk/internal/usecase"
)

// BatchProcessor is the orchestrator the worker drives for each message.
type BatchProcessor interface {
	Execute(ctx context.Context, batchJobID string) (*usecase.BatchResult, error)
}

type Worker struct {
	Channel   *amqp.Channel
	Processor BatchProcessor
}

func NewWorker(ch *amqp.Channel, processor BatchProcessor) *Worker {
	return &Worker{
		Channel:   ch,
		Processor: processor,
	}
}

func (w *Worker) Start(queueName string) {
	// One job at a time. A batch blocks on its own polling loop, so higher
	// prefetch would only park messages unacked behind it.
	if err := w.Channel.Qos(1, 0, false); err != nil {
		log.Fatalf("❌ [WORKER] Failed to set QoS: %s", err)
	}

	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual is safer)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		log.Fatalf("❌ [WORKER] Failed to register RabbitMQ consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload BatchJobPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("❌ [WORKER] Invalid JSON: %s", err)
				// Poison message. Reject without requeue so it goes to the DLQ.
				d.Nack(false, false)
				continue
			}

			log.Printf("📥 [WORKER] Batch job received: %s (%s)", payload.BatchJobID, payload.FileName)

			result, err := w.Processor.Execute(context.Background(), payload.BatchJobID)
			if err != nil {
				log.Printf("❌ [WORKER] Batch job %s failed: %s", payload.BatchJobID, err)
				middleware.RecordBatchJob("failed")
				// The job row is already marked failed; dead-letter the message.
				d.Nack(false, false)
				continue
			}

			if result.AlreadyClaimed {
				// Duplicate delivery or a second publish for the same job.
				// Someone else owns it, nothing to do here.
				log.Printf("⚠️ [WORKER] Batch job %s already claimed, skipping", payload.BatchJobID)
				d.Ack(false)
				continue
			}

			log.Printf("✅ [WORKER] Batch job %s done: %d processed (%d ok, %d failed)",
				payload.BatchJobID, result.Processed, result.Success, result.Failed)
			middleware.RecordBatchJob("complete")
			middleware.RecordBatchItems(result.Success, result.Failed)
			d.Ack(false)
		}
	}()

	log.Printf(" [*] Worker running, waiting on queue '%s'", queueName)
	<-forever
}
