package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound возвращается, когда целевая запись отсутствует в хранилище.
	// Отдельный sentinel нужен, чтобы вызывающий мог показать «уже удалено»
	// вместо общей ошибки.
	ErrNotFound = errors.New("resource not found")
	// Ошибка отсутствующего идентификатора пользователя в заказе.
	ErrUserRequired = errors.New("userId is required")
	// Ошибка отсутствия хотя бы одной ссылки на товар в заказе.
	ErrProductIDsRequired = errors.New("order must reference at least one product")
	// Ошибка неизвестного статуса заказа.
	ErrStatusInvalid = errors.New("order status is not a known status")
	// Ошибка отрицательной итоговой суммы заказа.
	ErrTotalNegative = errors.New("totalPrice must be non-negative")
	// Ошибка отсутствующего названия товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены товара.
	ErrPriceNegative = errors.New("price must be non-negative")
)

// TransportError — сетевая ошибка при обращении к удалённому хранилищу
// (недоступность, обрыв соединения, ответ 5xx).
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transport error: %s %s", e.Op, e.URL)
	}
	return fmt.Sprintf("transport error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError — хранилище отвергло полезную нагрузку запроса.
type ValidationError struct {
	Collection string
	StatusCode int
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: collection %s rejected payload (status %d): %s",
		e.Collection, e.StatusCode, e.Message)
}

// IsNotFound проверяет, является ли ошибка отсутствием записи.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport проверяет, является ли ошибка сетевой.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsValidation проверяет, является ли ошибка отказом валидации хранилища.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
