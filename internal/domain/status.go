package domain

// StatusView — проекция статуса для слоя представления: подпись и признак
// блокировки переходов. Никаких собственных инвариантов не несёт.
type StatusView struct {
	Status OrderStatus `json:"status"`
	Label  string      `json:"label"`
	Locked bool        `json:"locked"`
}

// AllStatuses перечисляет статусы в порядке жизненного цикла.
func AllStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

var statusLabels = map[OrderStatus]string{
	OrderStatusPending:    "Pending",
	OrderStatusProcessing: "Processing",
	OrderStatusShipped:    "Shipped",
	OrderStatusDelivered:  "Delivered",
	OrderStatusCancelled:  "Cancelled",
}

// PresentStatus возвращает представление статуса. Неизвестный статус
// показывается как есть и не блокируется.
func PresentStatus(s OrderStatus) StatusView {
	label, ok := statusLabels[s]
	if !ok {
		label = string(s)
	}
	return StatusView{
		Status: s,
		Label:  label,
		Locked: s.Terminal(),
	}
}
