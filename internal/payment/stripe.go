package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/linemk/print-shop/internal/lib/metrics"
	"github.com/sony/gobreaker"
)

const circuitName = "stripe"

type StripeClient struct {
	log     *slog.Logger
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
}

func NewStripeClient(log *slog.Logger, baseURL, secretKey string, timeout time.Duration) *StripeClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(secretKey).
		SetTimeout(timeout).
		SetRetryCount(0)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        circuitName,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// ответы 4xx - ошибка запроса, а не недоступность сервиса
			var apiErr *APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			log.Info("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(circuitName).Set(0)

	return &StripeClient{
		log:     log,
		client:  client,
		breaker: breaker,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// APIError - ответ платёжной системы с кодом не 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe returned status %d: %s", e.StatusCode, e.Message)
}

type stripeErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// sessionForm кодирует запрос в form-encoding со вложенными ключами
func sessionForm(req SessionRequest) url.Values {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	if req.ClientReferenceID != "" {
		form.Set("client_reference_id", req.ClientReferenceID)
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}
	for i, item := range req.LineItems {
		prefix := "line_items[" + strconv.Itoa(i) + "]"
		form.Set(prefix+"[price_data][currency]", req.Currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}
	return form
}

func (c *StripeClient) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	const op = "payment.CreateSession"

	session, err := c.do(func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetFormDataFromValues(sessionForm(req)).
			Post("/v1/checkout/sessions")
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.log.Debug("checkout session created", slog.String("op", op), slog.String("session_id", session.ID))
	return session, nil
}

func (c *StripeClient) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	const op = "payment.RetrieveSession"

	session, err := c.do(func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetPathParam("id", id).
			Get("/v1/checkout/sessions/{id}")
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

func (c *StripeClient) do(call func() (*resty.Response, error)) (*Session, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := call()
		if err != nil {
			return nil, fmt.Errorf("HTTP error: %w", err)
		}

		if resp.IsError() {
			var body stripeErrorBody
			_ = json.Unmarshal(resp.Body(), &body)
			return nil, &APIError{StatusCode: resp.StatusCode(), Message: body.Error.Message}
		}

		var session Session
		if err := json.Unmarshal(resp.Body(), &session); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		return &session, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("circuit breaker %s: %w", circuitName, err)
		}
		return nil, err
	}
	return result.(*Session), nil
}
