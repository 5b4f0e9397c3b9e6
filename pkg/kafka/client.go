// Package kafka carries document-ingestion tasks between the upload path
// and the background pipeline.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codexai-go/internal/config"
	"codexai-go/pkg/database"
	"codexai-go/pkg/log"
	"codexai-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// TaskProcessor is implemented by the ingestion pipeline. It decouples the
// consumer loop from the concrete processor.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.DocumentIngestTask) error
}

var producer *kafka.Writer

// InitProducer initializes the ingestion-topic producer.
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka producer initialized")
}

// ProduceIngestTask publishes a document-ingestion task.
func ProduceIngestTask(task tasks.DocumentIngestTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return producer.WriteMessages(context.Background(),
		kafka.Message{Value: taskBytes},
	)
}

// StartConsumer runs the ingestion consumer loop. Failed tasks are retried
// through redelivery; after three attempts (tracked in Redis) the offset is
// committed and the task dropped, leaving its status marker at "failed" so
// a later re-upload can clean up partial state.
func StartConsumer(cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka consumer started, listening on topic '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("failed to fetch message from Kafka", err)
			break
		}

		var task tasks.DocumentIngestTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("failed to decode Kafka message: %v, value: %s", err, string(m.Value))
			// Malformed payload: commit so it does not block the partition.
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("failed to commit malformed message: %v", err)
			}
			continue
		}

		log.Infof("processing ingest task, documentID=%d, file=%s", task.DocumentID, task.FileName)
		if err := processor.Process(context.Background(), task); err != nil {
			log.Errorf("ingest task failed, documentID=%d: %v", task.DocumentID, err)
			attemptsKey := fmt.Sprintf("ingest:attempts:%d", task.DocumentID)
			attempts, incErr := database.RDB.Incr(context.Background(), attemptsKey).Result()
			if incErr != nil {
				// Redis unavailable: leave the offset uncommitted and let
				// Kafka redeliver.
				continue
			}
			_ = database.RDB.Expire(context.Background(), attemptsKey, 24*time.Hour).Err()
			if attempts >= 3 {
				log.Errorf("ingest task failed %d times, giving up, documentID=%d", attempts, task.DocumentID)
				if err := r.CommitMessages(context.Background(), m); err != nil {
					log.Errorf("failed to commit Kafka offset: %v", err)
				}
			}
			continue
		}

		log.Infof("ingest task completed, documentID=%d", task.DocumentID)
		_ = database.RDB.Del(context.Background(), fmt.Sprintf("ingest:attempts:%d", task.DocumentID)).Err()
		if err := r.CommitMessages(context.Background(), m); err != nil {
			log.Errorf("failed to commit Kafka offset: %v", err)
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("failed to close Kafka consumer: %v", err)
	}
}
