package fulfillment

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/IBM/sarama"
	"github.com/chowkart/chowkart/internal/models"
)

// OutputDestination receives one serialized event per order status change.
// Downstream consumers (notification senders, analytics) subscribe to the
// per-stage topics; the core treats delivery of these messages as best
// effort.
type OutputDestination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

type ConsoleOutput struct{}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	output := fmt.Sprintf("[%s] %s\n", topic, string(msg))
	_, err := os.Stdout.Write([]byte(output))
	if err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	_ = os.Stdout.Sync()
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }

type KafkaOutput struct {
	producer sarama.SyncProducer
}

func NewKafkaOutput(brokerList []string) (*KafkaOutput, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Retry.Backoff = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Net.DialTimeout = 30 * time.Second
	config.Net.ReadTimeout = 30 * time.Second
	config.Net.WriteTimeout = 30 * time.Second

	producer, err := sarama.NewSyncProducer(brokerList, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return &KafkaOutput{producer: producer}, nil
}

func (k *KafkaOutput) WriteMessage(topic string, msg []byte) error {
	if k.producer == nil {
		return fmt.Errorf("Kafka producer is closed")
	}
	_, _, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg),
	})
	return err
}

func (k *KafkaOutput) Close() error {
	if k.producer == nil {
		return nil
	}
	err := k.producer.Close()
	k.producer = nil
	return err
}

// discardOutput drops everything; used when no emitter is configured.
type discardOutput struct{}

func (discardOutput) WriteMessage(string, []byte) error { return nil }
func (discardOutput) Close() error                      { return nil }

// StatusEvent is the wire shape of one order status change.
type StatusEvent struct {
	Timestamp   int64              `json:"timestamp"`
	EventType   string             `json:"eventType"`
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	CustomerID  string             `json:"customerId"`
	VendorID    string             `json:"vendorId"`
	PartnerID   string             `json:"deliveryPartnerId,omitempty"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount float64            `json:"totalAmount"`
	DeliveryFee float64            `json:"deliveryFee,omitempty"`
	Reason      string             `json:"reason,omitempty"`
}

var statusEventTypes = map[models.OrderStatus]struct {
	eventType string
	topic     string
}{
	models.OrderStatusPlaced:         {"OrderPlaced", "order_events"},
	models.OrderStatusConfirmed:      {"OrderConfirmed", "order_preparation_events"},
	models.OrderStatusPreparing:      {"OrderPreparing", "order_preparation_events"},
	models.OrderStatusReady:          {"OrderReady", "order_ready_events"},
	models.OrderStatusAssigned:       {"PartnerAssigned", "delivery_partner_assignment_events"},
	models.OrderStatusAccepted:       {"PartnerAccepted", "delivery_partner_assignment_events"},
	models.OrderStatusPickedUp:       {"OrderPickedUp", "order_pickup_events"},
	models.OrderStatusOutForDelivery: {"OrderOutForDelivery", "order_pickup_events"},
	models.OrderStatusDelivered:      {"OrderDelivered", "order_delivery_events"},
	models.OrderStatusCancelled:      {"OrderCancelled", "order_cancellation_events"},
}

// emitStatus publishes the transition event. Failures are logged, never
// propagated: event delivery is outside the core's consistency contract.
func (s *Service) emitStatus(order *models.Order, reason string) {
	route, ok := statusEventTypes[order.Status]
	if !ok {
		return
	}
	event := StatusEvent{
		Timestamp:   s.now().Unix(),
		EventType:   route.eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		VendorID:    order.VendorID,
		PartnerID:   order.DeliveryDetails.PartnerID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		DeliveryFee: order.DeliveryDetails.DeliveryFee,
		Reason:      reason,
	}
	msg, err := json.Marshal(event)
	if err != nil {
		s.log.WithError(err).Warn("failed to serialize status event")
		return
	}
	if err := s.emitter.WriteMessage(route.topic, msg); err != nil {
		s.log.WithError(err).WithField("topic", route.topic).Warn("failed to publish status event")
	}
}
