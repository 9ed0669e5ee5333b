package integrity

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
	"github.com/vladislavdragonenkov/refsync/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/refsync/internal/service/pricing"
)

const (
	cascadeKindProduct = "product"
	cascadeKindUser    = "user"
)

// DeleteProductCascade удаляет товар с клиентским каскадом: сначала из
// каждого ссылающегося заказа вычищаются все вхождения товара (опустевший
// заказ удаляется, остальным пересчитывается итоговая сумма), и только
// после успеха всех ремонтов удаляется сам товар. Любая ошибка ремонта
// прерывает каскад до корневого удаления: лучше оставить висячие ссылки,
// которые подчистит следующая сверка, чем молча потерять товар.
func (e *Engine) DeleteProductCascade(ctx context.Context, productID string) error {
	start := time.Now()
	logger := e.logger.WithField("product_id", productID)

	orders, err := e.orders.List(ctx)
	if err != nil {
		return fmt.Errorf("product cascade: list orders: %w", err)
	}
	products, err := e.products.List(ctx)
	if err != nil {
		return fmt.Errorf("product cascade: list products: %w", err)
	}
	idx := pricing.NewIndex(products)

	var affected []domain.Order
	for _, o := range orders {
		if containsID(o.ProductIDs, productID) {
			affected = append(affected, o)
		}
	}

	repairErr := e.runParallelErr(len(affected), func(k int) error {
		order := affected[k]
		filtered := removeAllIDs(order.ProductIDs, productID)

		if len(filtered) == 0 {
			if err := e.orders.Delete(ctx, order.ID); err != nil {
				return fmt.Errorf("delete emptied order %s: %w", order.ID, err)
			}
			e.recordOrderEmptied()
			e.publishEvent(kafka.EventTypeOrderEmptied, "orders", order.ID, map[string]interface{}{
				"user_id": order.UserID,
			})
			return nil
		}

		// Сумма считается только по оставшимся живым ссылкам; прочие
		// висячие идентификаторы здесь не вычищаются — их закроет сверка.
		total, _ := idx.Resolve(filtered)
		order.ProductIDs = filtered
		order.TotalPrice = total
		if _, err := e.orders.Replace(ctx, order); err != nil {
			return fmt.Errorf("repair order %s: %w", order.ID, err)
		}
		e.recordOrderRepaired()
		return nil
	})
	if repairErr != nil {
		// Товар не удаляем: хранилище остаётся в известном, сверяемом
		// состоянии вместо молча несогласованного.
		e.recordCascadeAborted(cascadeKindProduct)
		logger.WithError(repairErr).Warn("product cascade aborted before root delete")
		return fmt.Errorf("product cascade aborted: %w", repairErr)
	}

	if err := e.products.Delete(ctx, productID); err != nil {
		return fmt.Errorf("product cascade: delete product: %w", err)
	}

	e.recordCascadeRun(cascadeKindProduct, time.Since(start))
	e.publishEvent(kafka.EventTypeProductCascadeCompleted, "products", productID, map[string]interface{}{
		"affected_orders": len(affected),
	})
	logger.WithField("affected_orders", len(affected)).Info("product deleted with cascade")
	return nil
}

// DeleteUserCascade удаляет пользователя вместе с его заказами. Заказы
// удаляются первыми; если хотя бы одно удаление не удалось, пользователь
// остаётся — владелец осиротевших заказов не удаляется.
func (e *Engine) DeleteUserCascade(ctx context.Context, userID string) error {
	start := time.Now()
	logger := e.logger.WithField("user_id", userID)

	orders, err := e.orders.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("user cascade: list orders: %w", err)
	}

	deleteErr := e.runParallelErr(len(orders), func(k int) error {
		if err := e.orders.Delete(ctx, orders[k].ID); err != nil {
			return fmt.Errorf("delete order %s: %w", orders[k].ID, err)
		}
		return nil
	})
	if deleteErr != nil {
		e.recordCascadeAborted(cascadeKindUser)
		logger.WithError(deleteErr).Warn("user cascade aborted before root delete")
		return fmt.Errorf("user cascade aborted: %w", deleteErr)
	}

	if err := e.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("user cascade: delete user: %w", err)
	}

	e.recordCascadeRun(cascadeKindUser, time.Since(start))
	e.publishEvent(kafka.EventTypeUserCascadeCompleted, "users", userID, map[string]interface{}{
		"deleted_orders": len(orders),
	})
	logger.WithField("deleted_orders", len(orders)).Info("user deleted with cascade")
	return nil
}

func (e *Engine) recordCascadeRun(kind string, duration time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordCascadeRun(kind)
		e.metrics.RecordCascadeDuration(kind, duration)
	}
}

func (e *Engine) recordCascadeAborted(kind string) {
	if e.metrics != nil {
		e.metrics.RecordCascadeAborted(kind)
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// removeAllIDs убирает все вхождения id, сохраняя порядок остальных.
func removeAllIDs(ids []string, id string) []string {
	filtered := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
