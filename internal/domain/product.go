package domain

// Product — товар каталога. Удаление товара — событие-триггер для
// каскадного ремонта заказов, ссылающихся на него.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Price — цена в минимальных денежных единицах, неотрицательная.
	Price int64 `json:"price"`
}

// ValidateInvariants проверяет инварианты товара.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.Price < 0 {
		errs = append(errs, ErrPriceNegative)
	}

	return errs
}
