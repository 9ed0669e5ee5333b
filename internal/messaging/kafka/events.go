package kafka

import "time"

// EventType определяет тип события целостности
type EventType string

const (
	// События жизненного цикла заказа
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"

	// События ремонта висячих ссылок
	EventTypeOrderRepaired EventType = "order.repaired"
	EventTypeOrderEmptied  EventType = "order.emptied"

	// События каскадных удалений
	EventTypeProductCascadeCompleted EventType = "cascade.product.completed"
	EventTypeUserCascadeCompleted    EventType = "cascade.user.completed"

	// Событие завершённого прохода сверки
	EventTypeReconcileCompleted EventType = "reconcile.completed"
)

// Topics для Kafka
const (
	TopicIntegrityEvents = "refsync.integrity.events"
)

// IntegrityEvent представляет событие движка целостности
type IntegrityEvent struct {
	EventType  EventType              `json:"event_type"`
	Collection string                 `json:"collection"`
	EntityID   string                 `json:"entity_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// NewIntegrityEvent создает новое событие целостности
func NewIntegrityEvent(eventType EventType, collection, entityID string, metadata map[string]interface{}) *IntegrityEvent {
	return &IntegrityEvent{
		EventType:  eventType,
		Collection: collection,
		EntityID:   entityID,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}
}
