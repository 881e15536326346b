package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/print-shop/internal/app/handlers"
	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/print-shop/internal/lib/media"
	"github.com/linemk/print-shop/internal/payment"
	"github.com/linemk/print-shop/internal/policy"
	"github.com/linemk/print-shop/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var (
	student = &models.User{ID: 1, Username: "sara", Role: models.RoleStudent, IsApproved: true}
	vendor  = &models.User{ID: 2, Username: "copy-a", Role: models.RoleVendor, IsApproved: true}
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// as подставляет принципала и сессию, как это делают jwtmiddleware и policy.Authenticate
func as(user *models.User, r *http.Request) *http.Request {
	ctx := policy.WithPrincipal(r.Context(), user)
	ctx = context.WithValue(ctx, jwtmiddleware.SessionIDKey, "sid-1")
	return r.WithContext(ctx)
}

// fakeAuthService - фиктивная реализация для тестирования.
type fakeAuthService struct {
	result     *service.LoginResult
	err        error
	loggedOut  string
	registered service.RegisterInput
}

func (f *fakeAuthService) Register(ctx context.Context, in service.RegisterInput) (*models.User, error) {
	f.registered = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: 7, Username: in.Username, Role: in.Role}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	return f.result, f.err
}

func (f *fakeAuthService) Logout(ctx context.Context, sessionID string) error {
	f.loggedOut = sessionID
	return nil
}

// остальные фейки встраивают интерфейс и переопределяют только нужные методы

type fakePrintOrders struct {
	service.PrintOrderService
	err       error
	status    string
	scheduled *time.Time
	created   service.CreatePrintOrderInput
	document  string
	order     *models.PrintOrder
}

// Document пускает только студента-владельца и назначенного продавца
func (f *fakePrintOrders) Document(ctx context.Context, user *models.User, id int64) (*models.PrintOrder, error) {
	if f.order == nil || f.order.ID != id {
		return nil, service.ErrNotFound
	}
	if f.order.StudentID == user.ID || (f.order.VendorID != nil && *f.order.VendorID == user.ID) {
		return f.order, nil
	}
	return nil, service.ErrNotFound
}

func (f *fakePrintOrders) UpdateStatus(ctx context.Context, vendorID, id int64, status string, scheduled *time.Time) error {
	f.status, f.scheduled = status, scheduled
	return f.err
}

func (f *fakePrintOrders) Create(ctx context.Context, studentID int64, in service.CreatePrintOrderInput) (*models.PrintOrder, error) {
	f.created = in
	data, _ := io.ReadAll(in.Document)
	f.document = string(data)
	return &models.PrintOrder{ID: 1, StudentID: studentID, VendorID: in.VendorID, Status: models.PrintPending}, f.err
}

type fakeCarts struct {
	service.CartService
	cart      *models.Cart
	intentErr error
	details   models.DeliveryDetails
}

func (f *fakeCarts) View(ctx context.Context, userID int64) (*models.Cart, error) {
	return f.cart, nil
}

func (f *fakeCarts) CheckoutIntent(ctx context.Context, userID int64, sessionID string, details models.DeliveryDetails) error {
	f.details = details
	return f.intentErr
}

type fakeCheckout struct {
	service.CheckoutService
	result    *service.CheckoutResult
	err       error
	localSID  string
	sessionID string
}

func (f *fakeCheckout) CartSession(ctx context.Context, userID int64, sessionID string) (*payment.Session, error) {
	f.localSID = sessionID
	return &payment.Session{ID: "cs_1", URL: "https://pay.test/cs_1"}, f.err
}

func (f *fakeCheckout) Reconcile(ctx context.Context, userID int64, localSessionID, checkoutSessionID string) (*service.CheckoutResult, error) {
	f.localSID, f.sessionID = localSessionID, checkoutSessionID
	return f.result, f.err
}

type fakeShopOrders struct {
	service.ShopOrderService
	err error
}

func (f *fakeShopOrders) UpdateStatus(ctx context.Context, seller *models.User, id int64, status string) error {
	return f.err
}

func (f *fakeShopOrders) OrderPeerItem(ctx context.Context, buyerID, itemID int64, quantity int) (*models.ShopOrder, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ShopOrder{ID: 9, BuyerID: buyerID, ItemID: itemID, Quantity: quantity}, nil
}

func TestAuthHandler_SuccessSetsCookie(t *testing.T) {
	fakeSvc := &fakeAuthService{result: &service.LoginResult{Token: "test-token", Redirect: service.RedirectStudentBoard, User: student}}
	handler := handlers.AuthHandler(newLogger(), fakeSvc)

	reqBody := `{"username": "sara", "password": "password123"}`
	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Token    string `json:"token"`
		Redirect string `json:"redirect"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "test-token", resp.Token)
	assert.Equal(t, "/student/dashboard", resp.Redirect)

	cookies := rr.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, jwtmiddleware.CookieName, cookies[0].Name)
		assert.Equal(t, "test-token", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	}
}

func TestAuthHandler_InvalidJSON(t *testing.T) {
	handler := handlers.AuthHandler(newLogger(), &fakeAuthService{})

	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(`{"username": "sara", "password":`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"NotApproved", fmt.Errorf("auth.Login: %w", service.ErrNotApproved), http.StatusForbidden, "your account is not approved yet"},
		{"BadPassword", fmt.Errorf("auth.Login: %w", service.ErrInvalidCredentials), http.StatusUnauthorized, "invalid credentials"},
		{"Storage", errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.AuthHandler(newLogger(), &fakeAuthService{err: tt.err})
			req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(`{"username": "copy", "password": "password123"}`))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.body, strings.TrimSpace(rr.Body.String()))
			assert.Empty(t, rr.Result().Cookies())
		})
	}
}

func TestRegisterHandler(t *testing.T) {
	fakeSvc := &fakeAuthService{}
	handler := handlers.RegisterHandler(newLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/register", bytes.NewBufferString(`{"username": "copy", "email": "c@uni.edu", "password": "password123", "role": "vendor"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, models.RoleVendor, fakeSvc.registered.Role)

	req = httptest.NewRequest("POST", "/register", bytes.NewBufferString(`{"username": "copy", "password": "password123", "role": "admin"}`))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	fakeSvc.err = fmt.Errorf("auth.Register: %w", service.ErrUserExists)
	req = httptest.NewRequest("POST", "/register", bytes.NewBufferString(`{"username": "copy", "password": "password123", "role": "student"}`))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLogoutHandler_ClearsCookieAndSession(t *testing.T) {
	fakeSvc := &fakeAuthService{}
	handler := handlers.LogoutHandler(newLogger(), fakeSvc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, as(student, httptest.NewRequest("POST", "/logout", nil)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "sid-1", fakeSvc.loggedOut)
	cookies := rr.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, -1, cookies[0].MaxAge)
	}
}

func printStatusRouter(svc service.PrintOrderService) http.Handler {
	r := chi.NewRouter()
	r.Post("/vendor/print-orders/{id}/status", handlers.UpdatePrintStatusHandler(newLogger(), svc))
	return r
}

func TestUpdatePrintStatusHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		location string
	}{
		{"Updated", nil, http.StatusSeeOther, "/vendor/print-orders"},
		{"OtherVendor", fmt.Errorf("op: %w", service.ErrForbidden), http.StatusForbidden, ""},
		{"Missing", fmt.Errorf("op: %w", service.ErrNotFound), http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePrintOrders{err: tt.err}
			body := `{"status": "in_progress", "scheduled_time": "2026-10-14T09:30"}`
			req := as(vendor, httptest.NewRequest("POST", "/vendor/print-orders/3/status", bytes.NewBufferString(body)))
			rr := httptest.NewRecorder()

			printStatusRouter(svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.location, rr.Header().Get("Location"))
			assert.Equal(t, "in_progress", svc.status)
			if assert.NotNil(t, svc.scheduled) {
				assert.Equal(t, 9, svc.scheduled.Hour())
			}
		})
	}
}

func TestUpdatePrintStatusHandler_BadID(t *testing.T) {
	req := as(vendor, httptest.NewRequest("POST", "/vendor/print-orders/abc/status", bytes.NewBufferString(`{"status": "done"}`)))
	rr := httptest.NewRecorder()
	printStatusRouter(&fakePrintOrders{}).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateShopStatusHandler_RedirectsToSellerOrders(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/seller/orders/{id}/status", handlers.UpdateShopStatusHandler(newLogger(), &fakeShopOrders{}))

	req := as(vendor, httptest.NewRequest("POST", "/seller/orders/4/status", bytes.NewBufferString(`{"status": "bogus"}`)))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, handlers.SellerOrdersPath, rr.Header().Get("Location"))
}

func TestOrderPeerItemHandler_PointsToDeliveryStep(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/peer-items/{id}/order", handlers.OrderPeerItemHandler(newLogger(), &fakeShopOrders{}))

	req := as(student, httptest.NewRequest("POST", "/peer-items/5/order", nil))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/shop-orders/9/delivery", rr.Header().Get("Location"))
	var order models.ShopOrder
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&order))
	assert.Equal(t, 1, order.Quantity)
}

func TestCreatePrintOrderHandler_Multipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("document", "thesis.pdf")
	assert.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.7"))
	assert.NoError(t, mw.WriteField("vendor_id", "2"))
	assert.NoError(t, mw.WriteField("scheduled_time", "2026-10-15T08:00:00Z"))
	assert.NoError(t, mw.Close())

	svc := &fakePrintOrders{}
	handler := handlers.CreatePrintOrderHandler(newLogger(), svc, 1<<20)
	req := httptest.NewRequest("POST", "/print-orders", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, as(student, req))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "thesis.pdf", svc.created.Filename)
	assert.Equal(t, "%PDF-1.7", svc.document)
	if assert.NotNil(t, svc.created.VendorID) {
		assert.Equal(t, int64(2), *svc.created.VendorID)
	}
	if assert.NotNil(t, svc.created.ScheduledTime) {
		assert.Equal(t, 15, svc.created.ScheduledTime.Day())
	}
}

func TestCreatePrintOrderHandler_MissingDocument(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	assert.NoError(t, mw.WriteField("vendor_id", "2"))
	assert.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/print-orders", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	handlers.CreatePrintOrderHandler(newLogger(), &fakePrintOrders{}, 1<<20).ServeHTTP(rr, as(student, req))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestViewCartHandler_Totals(t *testing.T) {
	price, _ := decimal.NewFromString("10.00")
	carts := &fakeCarts{cart: &models.Cart{Lines: []models.CartLine{{ID: 1, ItemID: 7, ItemName: "Lab coat", UnitPrice: price, Quantity: 2}}}}

	rr := httptest.NewRecorder()
	handlers.ViewCartHandler(newLogger(), carts).ServeHTTP(rr, as(student, httptest.NewRequest("GET", "/cart", nil)))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Lines []struct {
			Quantity  int    `json:"quantity"`
			LineTotal string `json:"line_total"`
		} `json:"lines"`
		Total string `json:"total"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "20", resp.Total)
	if assert.Len(t, resp.Lines, 1) {
		assert.Equal(t, 2, resp.Lines[0].Quantity)
		assert.Equal(t, "20", resp.Lines[0].LineTotal)
	}
}

func TestCheckoutCartHandler(t *testing.T) {
	body := `{"name": "Sara", "phone": "+880", "address": "Hall 3"}`

	carts := &fakeCarts{}
	checkout := &fakeCheckout{}
	rr := httptest.NewRecorder()
	handlers.CheckoutCartHandler(newLogger(), carts, checkout).ServeHTTP(rr, as(student, httptest.NewRequest("POST", "/cart/checkout", bytes.NewBufferString(body))))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "sid-1", checkout.localSID)
	assert.Equal(t, "Hall 3", carts.details.Address)
	var resp handlers.CheckoutResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "https://pay.test/cs_1", resp.URL)

	carts.intentErr = fmt.Errorf("op: %w", service.ErrEmptyCart)
	checkout.localSID = ""
	rr = httptest.NewRecorder()
	handlers.CheckoutCartHandler(newLogger(), carts, checkout).ServeHTTP(rr, as(student, httptest.NewRequest("POST", "/cart/checkout", bytes.NewBufferString(body))))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "your cart is empty", strings.TrimSpace(rr.Body.String()))
	assert.Empty(t, checkout.localSID, "No session is opened for an empty cart")
}

func TestPaymentSuccessHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		err      error
		status   int
		location string
	}{
		{"MissingSessionID", "", nil, http.StatusBadRequest, ""},
		{"Paid", "?session_id=cs_1", nil, http.StatusOK, ""},
		{"ProviderDown", "?session_id=cs_1", fmt.Errorf("op: %w: %w", service.ErrPaymentProvider, errors.New("dial tcp: i/o timeout")), http.StatusSeeOther, "/?message="},
		{"Unpaid", "?session_id=cs_1", fmt.Errorf("op: %w", service.ErrPaymentNotCompleted), http.StatusSeeOther, "/payment-cancel?message=payment+was+not+successful"},
		{"ForeignSession", "?session_id=cs_1", fmt.Errorf("op: %w", service.ErrForbidden), http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkout := &fakeCheckout{result: &service.CheckoutResult{Message: "payment successful"}, err: tt.err}
			rr := httptest.NewRecorder()
			handlers.PaymentSuccessHandler(newLogger(), checkout).ServeHTTP(rr, as(student, httptest.NewRequest("GET", "/payment-success"+tt.query, nil)))

			assert.Equal(t, tt.status, rr.Code)
			assert.True(t, strings.HasPrefix(rr.Header().Get("Location"), tt.location))
			assert.NotContains(t, rr.Body.String(), "i/o timeout")
			if tt.status == http.StatusOK {
				assert.Equal(t, "cs_1", checkout.sessionID)
				assert.Equal(t, "sid-1", checkout.localSID)
				assert.Contains(t, rr.Body.String(), "payment successful")
			}
		})
	}
}

func TestPaymentCancelHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	handlers.PaymentCancelHandler(newLogger()).ServeHTTP(rr, httptest.NewRequest("GET", "/payment-cancel?message=payment+was+not+successful", nil))

	var resp handlers.PaymentCancelResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "payment canceled", resp.Message)
	assert.Equal(t, "payment was not successful", resp.Detail)
}

func TestHandlers_PrincipalMissing(t *testing.T) {
	rr := httptest.NewRecorder()
	handlers.ViewCartHandler(newLogger(), &fakeCarts{}).ServeHTTP(rr, httptest.NewRequest("GET", "/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func documentRouter(t *testing.T, svc service.PrintOrderService) http.Handler {
	t.Helper()
	dir := t.TempDir()
	assert.NoError(t, os.MkdirAll(filepath.Join(dir, "orders"), 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "orders", "thesis.pdf"), []byte("%PDF-1.4"), 0o644))

	docs := media.NewStore(dir)
	r := chi.NewRouter()
	r.Get("/print-orders/{id}/document", handlers.DocumentHandler(newLogger(), svc, docs))
	r.Get("/vendor/print-orders/{id}/document", handlers.DocumentHandler(newLogger(), svc, docs))
	return r
}

func TestDocumentHandler(t *testing.T) {
	otherStudent := &models.User{ID: 5, Username: "omar", Role: models.RoleStudent, IsApproved: true}
	otherVendor := &models.User{ID: 3, Username: "copy-b", Role: models.RoleVendor, IsApproved: true}
	vendorID := vendor.ID

	tests := []struct {
		name   string
		user   *models.User
		path   string
		doc    string
		status int
	}{
		{"owner student", student, "/print-orders/7/document", "orders/thesis.pdf", http.StatusOK},
		{"assigned vendor", vendor, "/vendor/print-orders/7/document", "orders/thesis.pdf", http.StatusOK},
		{"foreign student", otherStudent, "/print-orders/7/document", "orders/thesis.pdf", http.StatusNotFound},
		{"foreign vendor", otherVendor, "/vendor/print-orders/7/document", "orders/thesis.pdf", http.StatusNotFound},
		{"unknown order", student, "/print-orders/8/document", "orders/thesis.pdf", http.StatusNotFound},
		{"file removed", student, "/print-orders/7/document", "orders/missing.pdf", http.StatusNotFound},
		{"path escape stays in media dir", student, "/print-orders/7/document", "../../etc/passwd", http.StatusNotFound},
		{"bad id", student, "/print-orders/abc/document", "orders/thesis.pdf", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePrintOrders{order: &models.PrintOrder{ID: 7, StudentID: student.ID, VendorID: &vendorID, Document: tt.doc}}
			rr := httptest.NewRecorder()

			documentRouter(t, svc).ServeHTTP(rr, as(tt.user, httptest.NewRequest("GET", tt.path, nil)))

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "%PDF-1.4", rr.Body.String())
				assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
			}
		})
	}
}
