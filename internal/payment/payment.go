package payment

import (
	"context"
	"errors"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// StatusPaid - payment_status оплаченной сессии
const StatusPaid = "paid"

// SessionIDPlaceholder подставляется платёжной системой в success URL.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

type LineItem struct {
	Name string
	// UnitAmount в минимальных единицах валюты (копейки, пайсы).
	UnitAmount int64
	Quantity   int
}

type SessionRequest struct {
	LineItems         []LineItem
	Currency          string
	Metadata          map[string]string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
}

type Session struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

func (s *Session) Paid() bool {
	return s.PaymentStatus == StatusPaid
}

// Processor - внешняя платёжная система с checkout-сессиями.
type Processor interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
}
