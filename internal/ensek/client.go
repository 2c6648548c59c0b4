// Package ensek предоставляет клиент API сервиса покупки топлива.
package ensek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmeshcher/fuelcheck/internal/model"
)

// ErrNotConfigured возвращается, если клиент создан без адреса сервиса.
var ErrNotConfigured = errors.New("ensek client not configured")

// StatusError описывает ответ сервиса с кодом вне диапазона 2xx.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client инкапсулирует HTTP-взаимодействие с сервисом покупки топлива.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Order описывает заказ в формате API.
type Order struct {
	Fuel     string `json:"fuel"`
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Time     string `json:"time"`
}

// EnergyItem описывает остаток одного вида топлива в каталоге.
type EnergyItem struct {
	EnergyID     int     `json:"energy_id"`
	PricePerUnit float64 `json:"price_per_unit"`
	QuantityOf   int     `json:"quantity_of_units"`
	UnitType     string  `json:"unit_type"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// NewClient создаёт HTTP-клиент сервиса по указанному адресу.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CloseIdleConnections закрывает простаивающие соединения HTTP-клиента.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// SetToken задаёт bearer-токен для последующих запросов.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login получает токен доступа по логину и паролю.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/ENSEK/login", loginRequest{Username: username, Password: password}, &resp); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("login: empty access token: %s", resp.Message)
	}
	return resp.AccessToken, nil
}

// Buy покупает quantity единиц топлива fuelID и возвращает текст ответа сервиса.
func (c *Client) Buy(ctx context.Context, fuelID model.FuelID, quantity int) (string, error) {
	path := fmt.Sprintf("/ENSEK/buy/%d/%d", fuelID, quantity)

	body, err := c.raw(ctx, http.MethodPut, path, nil)
	if err != nil {
		return "", fmt.Errorf("buy fuel %d: %w", fuelID, err)
	}
	return responseMessage(body), nil
}

// ListOrders возвращает все заказы сервиса.
func (c *Client) ListOrders(ctx context.Context) ([]model.OrderRecord, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/ENSEK/orders", nil, &orders); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	res := make([]model.OrderRecord, 0, len(orders))
	for _, o := range orders {
		res = append(res, o.record())
	}
	return res, nil
}

// GetOrder возвращает заказ по номеру.
func (c *Client) GetOrder(ctx context.Context, id string) (model.OrderRecord, error) {
	var o Order
	if err := c.do(ctx, http.MethodGet, "/ENSEK/orders/"+url.PathEscape(id), nil, &o); err != nil {
		return model.OrderRecord{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o.record(), nil
}

// UpdateOrder отправляет новые данные заказа.
func (c *Client) UpdateOrder(ctx context.Context, id string, order Order) error {
	if _, err := c.raw(ctx, http.MethodPost, "/ENSEK/orders/"+url.PathEscape(id), order); err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	return nil
}

// DeleteOrder удаляет заказ по номеру.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	if _, err := c.raw(ctx, http.MethodDelete, "/ENSEK/orders/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}

// Energy возвращает каталог топлива с ценами и остатками по имени топлива.
func (c *Client) Energy(ctx context.Context) (map[string]EnergyItem, error) {
	var catalog map[string]EnergyItem
	if err := c.do(ctx, http.MethodGet, "/ENSEK/energy", nil, &catalog); err != nil {
		return nil, fmt.Errorf("energy: %w", err)
	}
	return catalog, nil
}

// Reset сбрасывает тестовые данные сервиса.
func (c *Client) Reset(ctx context.Context) error {
	if _, err := c.raw(ctx, http.MethodPost, "/ENSEK/reset", nil); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

func (o Order) record() model.OrderRecord {
	return model.OrderRecord{
		ID:        o.ID,
		FuelName:  o.Fuel,
		Quantity:  o.Quantity,
		CreatedAt: o.Time,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body, err := c.raw(ctx, method, path, in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, path string, in any) ([]byte, error) {
	if c == nil || c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}

// responseMessage достаёт поле message из JSON-ответа; прочие ответы возвращаются как есть.
func responseMessage(body []byte) string {
	var m messageResponse
	if err := json.Unmarshal(body, &m); err == nil && m.Message != "" {
		return m.Message
	}
	return strings.TrimSpace(string(body))
}
