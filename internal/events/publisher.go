package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/config"
	"github.com/greenroomhq/greenroom/internal/logging"
)

// Publisher writes jobs and status updates to the topic exchange over a
// single channel. It is not safe for concurrent use; the server publishes
// from one goroutine.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	cfg  config.AMQPConfig
	log  *zap.SugaredLogger
	seq  atomic.Uint64
}

// NewPublisher connects to the broker and declares the topology.
func NewPublisher(cfg config.AMQPConfig, log *zap.SugaredLogger) (*Publisher, error) {
	if log == nil {
		log = logging.Nop()
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	p := &Publisher{conn: conn, ch: ch, cfg: cfg, log: log}
	// Seq continues from the wall clock so values stay unique across
	// restarts and the worker's replay filter never sees a stale number.
	p.seq.Store(uint64(time.Now().UnixNano()))
	return p, nil
}

// EnqueueAnalyze stamps the job with the next sequence number and queues it
// for the worker pool. The stamped job is returned so callers can log it.
func (p *Publisher) EnqueueAnalyze(ctx context.Context, job AnalyzeResumeJob) (AnalyzeResumeJob, error) {
	job.Seq = p.seq.Add(1)
	body, err := json.Marshal(job)
	if err != nil {
		return job, fmt.Errorf("failed to encode job: %w", err)
	}
	if err := p.publish(ctx, jobKey, body); err != nil {
		return job, fmt.Errorf("failed to publish job: %w", err)
	}
	p.log.Debugw("enqueued analysis job", "session", job.SessionID, "seq", job.Seq)
	return job, nil
}

// PublishUpdate emits a progress message on the session's topic. Updates
// are advisory; a lost one only delays whoever is watching the topic.
func (p *Publisher) PublishUpdate(ctx context.Context, sessionID, status, message string) error {
	upd := StatusUpdate{
		SessionID: sessionID,
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	body, err := json.Marshal(upd)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}
	if err := p.publish(ctx, UpdateRoutingKey(sessionID), body); err != nil {
		return fmt.Errorf("failed to publish update: %w", err)
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, key string, body []byte) error {
	return p.ch.PublishWithContext(ctx, p.cfg.Exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Close releases the channel and the connection.
func (p *Publisher) Close() {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
