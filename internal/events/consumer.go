package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/config"
	"github.com/greenroomhq/greenroom/internal/logging"
)

// JobHandler processes one analysis job. A returned error requeues the job
// once; failing the redelivery drops it.
type JobHandler func(ctx context.Context, job AnalyzeResumeJob) error

// Consumer drains the job queue with a pool of workers, one channel each.
type Consumer struct {
	conn *amqp.Connection
	cfg  config.AMQPConfig
	log  *zap.SugaredLogger
	wg   sync.WaitGroup
}

// NewConsumer connects to the broker. Topology is declared per worker
// channel in StartConsumers.
func NewConsumer(cfg config.AMQPConfig, log *zap.SugaredLogger) (*Consumer, error) {
	if log == nil {
		log = logging.Nop()
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	return &Consumer{conn: conn, cfg: cfg, log: log}, nil
}

// StartConsumers launches n workers. Each opens its own channel with a
// prefetch of one so a slow analysis on one worker never starves the rest.
func (c *Consumer) StartConsumers(ctx context.Context, n int, handler JobHandler) error {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		ch, err := c.conn.Channel()
		if err != nil {
			return fmt.Errorf("failed to open channel: %w", err)
		}
		if err := declareTopology(ch, c.cfg); err != nil {
			ch.Close()
			return err
		}
		if err := ch.Qos(1, 0, false); err != nil {
			ch.Close()
			return fmt.Errorf("failed to set prefetch: %w", err)
		}
		deliveries, err := ch.Consume(
			c.cfg.Queue,
			"",    // consumer tag
			false, // auto-ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,   // args
		)
		if err != nil {
			ch.Close()
			return fmt.Errorf("failed to start consuming: %w", err)
		}
		c.wg.Add(1)
		go c.worker(ctx, i, ch, deliveries, handler)
	}
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, ch *amqp.Channel, deliveries <-chan amqp.Delivery, handler JobHandler) {
	defer c.wg.Done()
	defer ch.Close()

	log := c.log.With("worker", id)
	log.Infow("worker started", "queue", c.cfg.Queue)
	for {
		select {
		case <-ctx.Done():
			log.Infow("worker stopping")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Warnw("delivery channel closed")
				return
			}
			var job AnalyzeResumeJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Warnw("dropping malformed job", "error", err)
				d.Nack(false, false)
				continue
			}
			if err := handler(ctx, job); err != nil {
				requeue := !d.Redelivered
				log.Warnw("job failed",
					"session", job.SessionID,
					"seq", job.Seq,
					"requeue", requeue,
					"error", err)
				d.Nack(false, requeue)
				continue
			}
			d.Ack(false)
		}
	}
}

// Wait blocks until every worker has exited.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

// Close shuts the connection, which also unblocks workers still reading.
func (c *Consumer) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
