// Package service реализует тестовый стенд сервиса покупки топлива с данными в памяти.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/fuelcheck/internal/metrics"
	"github.com/mmeshcher/fuelcheck/internal/model"
)

var (
	// ErrUnknownFuel возвращается для идентификатора топлива вне каталога.
	ErrUnknownFuel = errors.New("unknown fuel")
	// ErrInvalidQuantity возвращается для неположительного количества.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrOrderNotFound возвращается, если заказа с таким номером нет.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidCredentials возвращается при неверном логине или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Fuel описывает позицию каталога.
type Fuel struct {
	ID           model.FuelID
	Name         string
	Unit         string
	PricePerUnit float64
	Stock        int
}

// Order описывает заказ, созданный стендом.
type Order struct {
	ID        string
	Fuel      string
	Quantity  int
	CreatedAt time.Time
}

func defaultCatalog() map[model.FuelID]Fuel {
	return map[model.FuelID]Fuel{
		model.FuelGas:      {ID: model.FuelGas, Name: model.FuelGas.Name(), Unit: "m³", PricePerUnit: 0.34, Stock: 3000},
		model.FuelNuclear:  {ID: model.FuelNuclear, Name: model.FuelNuclear.Name(), Unit: "MW", PricePerUnit: 0.56, Stock: 0},
		model.FuelElectric: {ID: model.FuelElectric, Name: model.FuelElectric.Name(), Unit: "kWh", PricePerUnit: 0.47, Stock: 4322},
		model.FuelOil:      {ID: model.FuelOil, Name: model.FuelOil.Name(), Unit: "Litres", PricePerUnit: 0.5, Stock: 20},
	}
}

// Service хранит каталог и заказы стенда.
type Service struct {
	mu      sync.Mutex
	catalog map[model.FuelID]Fuel
	orders  []Order

	username string
	password string
	metrics  *metrics.Registry

	now   func() time.Time
	newID func() string
}

// NewService создаёт стенд с каталогом по умолчанию и учётными данными для входа.
func NewService(username, password string, m *metrics.Registry) *Service {
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &Service{
		catalog:  defaultCatalog(),
		username: username,
		password: password,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Authenticate проверяет логин и пароль.
func (s *Service) Authenticate(_ context.Context, login, password string) error {
	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !loginOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}

// Buy списывает топливо со склада и возвращает текст ответа в формате сервиса.
// Нехватка топлива не является ошибкой: о ней сообщает текст ответа.
func (s *Service) Buy(_ context.Context, fuelID model.FuelID, quantity int) (string, error) {
	if quantity <= 0 {
		return "", ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fuel, ok := s.catalog[fuelID]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownFuel, fuelID)
	}

	if fuel.Stock == 0 {
		return fmt.Sprintf("There is no %s fuel to purchase!", fuel.Name), nil
	}
	if quantity > fuel.Stock {
		return fmt.Sprintf("There is not enough %s to purchase! Only %d units remaining.", fuel.Name, fuel.Stock), nil
	}

	fuel.Stock -= quantity
	s.catalog[fuelID] = fuel

	order := Order{
		ID:        s.newID(),
		Fuel:      fuel.Name,
		Quantity:  quantity,
		CreatedAt: s.now(),
	}
	s.orders = append(s.orders, order)
	s.metrics.SandboxPurchases.WithLabelValues(fuel.Name).Inc()

	cost := float64(quantity) * fuel.PricePerUnit
	return fmt.Sprintf("You have purchased %d %s at a cost of %.2f there are %d units remaining. Your order id is %s.",
		quantity, fuel.Unit, cost, fuel.Stock, order.ID), nil
}

// Orders возвращает заказы в порядке создания.
func (s *Service) Orders(_ context.Context) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]Order, len(s.orders))
	copy(res, s.orders)
	return res
}

// Order возвращает заказ по номеру.
func (s *Service) Order(_ context.Context, id string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrOrderNotFound
}

// UpdateOrder меняет вид топлива и количество в заказе. Пустое имя топлива оставляет прежнее.
func (s *Service) UpdateOrder(_ context.Context, id, fuel string, quantity int) (Order, error) {
	if quantity <= 0 {
		return Order{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if fuel != "" && !s.knownFuel(fuel) {
		return Order{}, fmt.Errorf("%w: %s", ErrUnknownFuel, fuel)
	}

	for i, o := range s.orders {
		if o.ID != id {
			continue
		}
		if fuel != "" {
			o.Fuel = fuel
		}
		o.Quantity = quantity
		s.orders[i] = o
		return o, nil
	}
	return Order{}, ErrOrderNotFound
}

func (s *Service) knownFuel(name string) bool {
	for _, f := range s.catalog {
		if f.Name == name {
			return true
		}
	}
	return false
}

// DeleteOrder удаляет заказ по номеру.
func (s *Service) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, o := range s.orders {
		if o.ID == id {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			return nil
		}
	}
	return ErrOrderNotFound
}

// Energy возвращает каталог, упорядоченный по идентификатору топлива.
func (s *Service) Energy(_ context.Context) []Fuel {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]Fuel, 0, len(s.catalog))
	for _, f := range s.catalog {
		res = append(res, f)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Reset удаляет все заказы и восстанавливает остатки каталога.
func (s *Service) Reset(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog = defaultCatalog()
	s.orders = nil
}
