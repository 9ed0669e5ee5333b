package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, обработка ещё не началась.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — заказ собирается.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен; терминальный статус.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal сообщает, достиг ли статус конечного состояния.
// Из терминального статуса переходы запрещены: запрос смены статуса
// движок игнорирует как no-op, не как ошибку.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Valid проверяет, что статус принадлежит известному перечислению.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order агрегирует заказ удалённого хранилища.
//
// TotalPrice — производное поле: хранилище не является для него
// авторитетным источником, движок пересчитывает его при каждом чтении
// и при каждой мутации, меняющей ссылки на товары.
type Order struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	// ProductIDs — упорядоченная последовательность ссылок на товары.
	// Дубликаты допустимы: каждое вхождение оценивается отдельно.
	ProductIDs []string    `json:"productIds"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	TotalPrice int64       `json:"totalPrice"`
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if len(o.ProductIDs) == 0 {
		errs = append(errs, ErrProductIDsRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrStatusInvalid)
	}
	if o.TotalPrice < 0 {
		errs = append(errs, ErrTotalNegative)
	}

	return errs
}
