package integrity

import (
	"errors"
	"sync"
)

// runParallel выполняет size независимых задач с ограничением параллелизма
// и ждёт завершения всех.
func (e *Engine) runParallel(size int, fn func(index int)) {
	if size == 0 {
		return
	}

	limit := e.maxParallelOps
	if limit <= 0 {
		limit = 1
	}
	if limit > size {
		limit = size
	}

	semaphore := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for idx := 0; idx < size; idx++ {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(index int) {
			defer wg.Done()
			defer func() { <-semaphore }()
			fn(index)
		}(idx)
	}

	wg.Wait()
}

// runParallelErr — вариант для каскадов: задачи выполняются параллельно,
// но операция целиком считается неудачной, если упала хотя бы одна.
func (e *Engine) runParallelErr(size int, fn func(index int) error) error {
	if size == 0 {
		return nil
	}

	errs := make([]error, size)
	e.runParallel(size, func(index int) {
		errs[index] = fn(index)
	})
	return errors.Join(errs...)
}
