package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
)

const (
	// Exchange is the topic exchange plan events are published to.
	Exchange = "nutrifit.plans"
	// Queue receives every plan event for auditing.
	Queue = "plan_events"
)

// Plan event types, used as routing keys.
const (
	EventPlanCreated = "plan.created"
	EventPlanUpdated = "plan.updated"
	EventPlanDeleted = "plan.deleted"
)

// PlanEvent is the message published after a plan write commits.
type PlanEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	PlanID     uint      `json:"planId"`
	UserID     uint      `json:"usuarioId,omitempty"`
	MealCount  int       `json:"comidas,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewPlanEvent stamps a new event with a random id and the current time.
func NewPlanEvent(eventType string, planID, userID uint, mealCount int) PlanEvent {
	return PlanEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		PlanID:     planID,
		UserID:     userID,
		MealCount:  mealCount,
		OccurredAt: time.Now().UTC(),
	}
}

// DecodePlanEvent parses a delivery body produced by PublishPlanEvent.
func DecodePlanEvent(body []byte) (PlanEvent, error) {
	var event PlanEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return PlanEvent{}, fmt.Errorf("failed to decode plan event: %w", err)
	}
	if event.Type == "" || event.PlanID == 0 {
		return PlanEvent{}, fmt.Errorf("plan event %q is missing type or plan id", event.ID)
	}
	return event, nil
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the plan exchange and queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Printf("RabbitMQ client connected, exchange %s and queue %s declared.", Exchange, Queue)

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}
	if _, err := ch.QueueDeclare(
		Queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", Queue, err)
	}
	if err := ch.QueueBind(Queue, "plan.*", Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", Queue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishPlanEvent publishes event as persistent JSON, routed by its type.
func (c *Client) PublishPlanEvent(event PlanEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal plan event to JSON: %w", err)
	}

	err = c.channel.Publish(
		Exchange,   // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.ID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.Printf(" [x] Sent %s event for plan %d", event.Type, event.PlanID)
	return nil
}

// ConsumePlanEvents starts a goroutine that hands every delivery on Queue to
// handler. Deliveries are acked when handler succeeds. Deliveries that fail are
// nacked without requeue, since a body that cannot be handled now will not be
// handled on retry either.
func (c *Client) ConsumePlanEvents(handler func(event PlanEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		Queue, // queue
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for plan events on %s", Queue)

	go func() {
		for msg := range msgs {
			if err := HandleDelivery(msg.Body, handler); err != nil {
				log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
				if nackErr := msg.Nack(false, false); nackErr != nil {
					log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
			}
		}
	}()

	return nil
}

// HandleDelivery decodes body and passes the event to handler.
func HandleDelivery(body []byte, handler func(event PlanEvent) error) error {
	event, err := DecodePlanEvent(body)
	if err != nil {
		return err
	}
	return handler(event)
}

// LogPlanEvent is the audit handler used by the API process.
func LogPlanEvent(event PlanEvent) error {
	log.Printf("Plan event %s (%s): plan=%d user=%d meals=%d at %s",
		event.ID, event.Type, event.PlanID, event.UserID, event.MealCount, event.OccurredAt.Format(time.RFC3339))
	return nil
}
