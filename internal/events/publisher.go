package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/tesseract-hub/accreditation-service/internal/models"
)

// Subjects for workflow notification events.
const (
	SubjectFormSubmitted     = "accreditation.form.submitted"
	SubjectFormApproved      = "accreditation.form.approved"
	SubjectFormRejected      = "accreditation.form.rejected"
	SubjectRevisionRequested = "accreditation.form.revision_requested"
	SubjectUserCreated       = "accreditation.user.created"
)

// FormEvent is the payload published on workflow transitions. Downstream
// consumers (mailers, dashboards) subscribe to the subjects above.
type FormEvent struct {
	FormID      uuid.UUID         `json:"form_id"`
	Status      models.FormStatus `json:"status"`
	CompanyName string            `json:"company_name,omitempty"`
	Comments    string            `json:"comments,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// UserEvent is the payload published when a staff account is created.
type UserEvent struct {
	UserID     uuid.UUID       `json:"user_id"`
	Username   string          `json:"username"`
	Role       models.UserRole `json:"role"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher publishes workflow notification events to NATS. Delivery is
// fire-and-forget: a broker outage degrades notifications, never the
// workflow itself. A circuit breaker stops hammering a dead broker.
type Publisher struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

// NewPublisher creates a new notification event publisher
func NewPublisher(client *Client, logger *logrus.Logger) *Publisher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nats-publisher",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Publisher circuit breaker state changed")
		},
	})

	return &Publisher{
		client:  client,
		breaker: breaker,
		logger:  logger,
	}
}

// PublishFormEvent publishes a workflow transition asynchronously. Errors
// are logged, never returned; callers must not couple workflow outcomes to
// notification delivery.
func (p *Publisher) PublishFormEvent(subject string, event FormEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	go p.publish(subject, event, logrus.Fields{
		"form_id": event.FormID,
		"status":  event.Status,
	})
}

// PublishUserEvent publishes a staff account event asynchronously.
func (p *Publisher) PublishUserEvent(event UserEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	go p.publish(SubjectUserCreated, event, logrus.Fields{
		"user_id": event.UserID,
	})
}

func (p *Publisher) publish(subject string, payload interface{}, fields logrus.Fields) {
	fields["subject"] = subject

	if p.client == nil || !p.client.IsConnected() {
		p.logger.WithFields(fields).Warn("NATS not connected, notification dropped")
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.WithFields(fields).WithError(err).Error("Failed to marshal notification event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return p.client.JetStream().Publish(subject, data, nats.Context(ctx))
	})
	if err != nil {
		p.logger.WithFields(fields).WithError(err).Error("Failed to publish notification event")
		return
	}

	p.logger.WithFields(fields).Debug("Published notification event")
}

// Healthy reports whether the publisher can currently reach the broker.
func (p *Publisher) Healthy() error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("nats: not connected")
	}
	if p.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("nats: circuit breaker open")
	}
	return nil
}
