package remote

import (
	"context"
	"net/http"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
)

// Users — типизированный доступ к коллекции /users.
type Users struct {
	c *Client
}

// NewUsers возвращает хранилище пользователей поверх общего клиента.
func NewUsers(c *Client) *Users {
	return &Users{c: c}
}

func (s *Users) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	if err := s.c.do(ctx, http.MethodGet, "/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Users) Get(ctx context.Context, id string) (domain.User, error) {
	var out domain.User
	if err := s.c.do(ctx, http.MethodGet, "/users/"+id, nil, nil, &out); err != nil {
		return domain.User{}, err
	}
	return out, nil
}

// Update перезаписывает профиль целиком и возвращает эхо хранилища.
func (s *Users) Update(ctx context.Context, user domain.User) (domain.User, error) {
	var out domain.User
	if err := s.c.do(ctx, http.MethodPut, "/users/"+user.ID, nil, user, &out); err != nil {
		return domain.User{}, err
	}
	return out, nil
}

func (s *Users) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, "/users/"+id, nil, nil, nil)
}

var _ domain.UserStore = (*Users)(nil)
