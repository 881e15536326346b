package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Fake - платёжная система в памяти для локального запуска и тестов.
// Созданная сессия сразу считается оплаченной, если не задан PaymentStatus.
type Fake struct {
	mu            sync.Mutex
	sessions      map[string]*Session
	Requests      []SessionRequest
	PaymentStatus string
	Err           error
}

func NewFake() *Fake {
	return &Fake{
		sessions:      make(map[string]*Session),
		PaymentStatus: StatusPaid,
	}
}

func (f *Fake) CreateSession(_ context.Context, req SessionRequest) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	id := "cs_fake_" + uuid.NewString()
	metadata := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	session := &Session{
		ID:            id,
		URL:           strings.ReplaceAll(req.SuccessURL, SessionIDPlaceholder, id),
		PaymentStatus: f.PaymentStatus,
		Metadata:      metadata,
	}
	f.sessions[id] = session
	f.Requests = append(f.Requests, req)
	return session, nil
}

func (f *Fake) RetrieveSession(_ context.Context, id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	session, ok := f.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

// SetSessionStatus меняет статус уже созданной сессии.
func (f *Fake) SetSessionStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		s.PaymentStatus = status
	}
}
