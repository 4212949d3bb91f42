// Package events is the AMQP plumbing between the API server and the
// analysis worker: one topic exchange carries per-session status updates,
// and a durable queue bound to it carries resume-analysis jobs.
package events

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/greenroomhq/greenroom/internal/config"
)

// jobKey routes analysis jobs to the worker queue.
const jobKey = "jobs.analyze"

// jobBinding is the queue's binding pattern, so further job kinds can be
// added without re-declaring topology.
const jobBinding = "jobs.*"

// AnalyzeResumeJob asks the worker to run the LLM match analysis for a
// session. Seq increases per enqueue so a worker can drop replays after a
// redelivery.
type AnalyzeResumeJob struct {
	SessionID      string   `json:"session_id"`
	ResumeKeys     []string `json:"resume_keys"`
	JobDescription string   `json:"job_description"`
	Seq            uint64   `json:"seq"`
}

// StatusUpdate is one progress message on a session's topic.
type StatusUpdate struct {
	SessionID string    `json:"session_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// UpdateRoutingKey returns the routing key status updates for the session
// are published under. Consumers bind with "session.*" or a specific ID.
func UpdateRoutingKey(sessionID string) string {
	return fmt.Sprintf("session.%s", sessionID)
}

// declareTopology declares the exchange, the job queue, and the binding
// between them. Declarations are idempotent, so both sides run this and
// neither cares who starts first.
func declareTopology(ch *amqp.Channel, cfg config.AMQPConfig) error {
	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(cfg.Queue, jobBinding, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}
