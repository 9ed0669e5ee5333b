package domain

// User — профиль пользователя, принадлежащий удалённому хранилищу.
// Движок никогда не создаёт и не редактирует профиль; единственная
// операция над пользователем — каскадное удаление вместе с его заказами.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
