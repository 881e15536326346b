package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/storage"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func ptr[T any](v T) *T {
	return &v
}

type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[int64]*models.User)}
	for _, u := range users {
		f.users[u.ID] = u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if _, err := f.GetUserByUsername(ctx, user.Username); err == nil {
		return nil, fmt.Errorf("user %q: %w", user.Username, storage.ErrAlreadyExists)
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) sorted(keep func(u *models.User) bool) []*models.User {
	var out []*models.User
	for _, u := range f.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeUserRepo) ListApprovedVendors(ctx context.Context) ([]*models.User, error) {
	return f.sorted(func(u *models.User) bool { return u.IsApprovedVendor() }), nil
}

func (f *fakeUserRepo) ListPendingVendors(ctx context.Context) ([]*models.User, error) {
	return f.sorted(func(u *models.User) bool { return u.Role == models.RoleVendor && !u.IsApproved }), nil
}

func (f *fakeUserRepo) ApproveVendor(ctx context.Context, id int64) error {
	u, ok := f.users[id]
	if !ok || u.Role != models.RoleVendor {
		return storage.ErrUserNotFound
	}
	u.IsApproved = true
	return nil
}

func (f *fakeUserRepo) DeletePendingVendor(ctx context.Context, id int64) error {
	u, ok := f.users[id]
	if !ok || u.Role != models.RoleVendor || u.IsApproved {
		return storage.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeCategoryRepo struct {
	categories map[int64]*models.Category
}

var _ storage.CategoryStorage = (*fakeCategoryRepo)(nil)

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[int64]*models.Category)}
}

func (f *fakeCategoryRepo) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	for _, c := range f.categories {
		if c.Name == name {
			return nil, storage.ErrAlreadyExists
		}
	}
	c := &models.Category{ID: int64(len(f.categories) + 1), Name: name}
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeCategoryRepo) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategoryRepo) DeleteCategory(ctx context.Context, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return storage.ErrCategoryNotFound
	}
	delete(f.categories, id)
	return nil
}

type fakeVendorItemRepo struct {
	items map[int64]*models.VendorItem
}

var _ storage.VendorItemStorage = (*fakeVendorItemRepo)(nil)

func newFakeVendorItemRepo(items ...*models.VendorItem) *fakeVendorItemRepo {
	f := &fakeVendorItemRepo{items: make(map[int64]*models.VendorItem)}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeVendorItemRepo) CreateVendorItem(ctx context.Context, item *models.VendorItem) (*models.VendorItem, error) {
	item.ID = int64(len(f.items) + 1)
	item.CreatedAt = time.Now()
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeVendorItemRepo) GetActiveVendorItem(ctx context.Context, id int64) (*models.VendorItem, error) {
	it, ok := f.items[id]
	if !ok || it.Status != models.ItemActive {
		return nil, storage.ErrItemNotFound
	}
	return it, nil
}

func (f *fakeVendorItemRepo) GetOwnedVendorItem(ctx context.Context, id, vendorID int64) (*models.VendorItem, error) {
	it, ok := f.items[id]
	if !ok || it.VendorID != vendorID {
		return nil, storage.ErrItemNotFound
	}
	return it, nil
}

func (f *fakeVendorItemRepo) UpdateVendorItem(ctx context.Context, item *models.VendorItem) error {
	if _, err := f.GetOwnedVendorItem(ctx, item.ID, item.VendorID); err != nil {
		return err
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeVendorItemRepo) ToggleVendorItemStatus(ctx context.Context, id, vendorID int64) (models.ItemStatus, error) {
	it, err := f.GetOwnedVendorItem(ctx, id, vendorID)
	if err != nil {
		return "", err
	}
	it.Status = it.Status.Toggled()
	return it.Status, nil
}

func (f *fakeVendorItemRepo) DeleteVendorItem(ctx context.Context, id, vendorID int64) error {
	if _, err := f.GetOwnedVendorItem(ctx, id, vendorID); err != nil {
		return err
	}
	delete(f.items, id)
	return nil
}

func (f *fakeVendorItemRepo) ListVendorItems(ctx context.Context) ([]*models.VendorItem, error) {
	var out []*models.VendorItem
	for _, it := range f.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CategoryName != out[j].CategoryName {
			return out[i].CategoryName < out[j].CategoryName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeVendorItemRepo) ListVendorItemsByVendor(ctx context.Context, vendorID int64) ([]*models.VendorItem, error) {
	var out []*models.VendorItem
	for _, it := range f.items {
		if it.VendorID == vendorID {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakePeerItemRepo struct {
	items map[int64]*models.PeerItem
}

var _ storage.PeerItemStorage = (*fakePeerItemRepo)(nil)

func newFakePeerItemRepo() *fakePeerItemRepo {
	return &fakePeerItemRepo{items: make(map[int64]*models.PeerItem)}
}

func (f *fakePeerItemRepo) CreatePeerItem(ctx context.Context, item *models.PeerItem) (*models.PeerItem, error) {
	item.ID = int64(len(f.items) + 1)
	item.Status = models.ItemInactive
	item.CreatedAt = time.Now()
	f.items[item.ID] = item
	return item, nil
}

func (f *fakePeerItemRepo) GetActivePeerItem(ctx context.Context, id int64) (*models.PeerItem, error) {
	it, ok := f.items[id]
	if !ok || it.Status != models.ItemActive {
		return nil, storage.ErrItemNotFound
	}
	return it, nil
}

func (f *fakePeerItemRepo) filter(keep func(it *models.PeerItem) bool) []*models.PeerItem {
	var out []*models.PeerItem
	for _, it := range f.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakePeerItemRepo) ListPeerItemsByStatus(ctx context.Context, status models.ItemStatus) ([]*models.PeerItem, error) {
	return f.filter(func(it *models.PeerItem) bool { return it.Status == status }), nil
}

func (f *fakePeerItemRepo) ListPeerItemsByStudent(ctx context.Context, studentID int64) ([]*models.PeerItem, error) {
	return f.filter(func(it *models.PeerItem) bool { return it.StudentID == studentID }), nil
}

func (f *fakePeerItemRepo) ApprovePeerItem(ctx context.Context, id, vendorID int64) error {
	it, ok := f.items[id]
	if !ok || it.Status != models.ItemInactive {
		return storage.ErrItemNotFound
	}
	it.Status = models.ItemActive
	it.ApprovedBy = &vendorID
	return nil
}

func (f *fakePeerItemRepo) DeletePeerItem(ctx context.Context, id, studentID int64) error {
	it, ok := f.items[id]
	if !ok || it.StudentID != studentID {
		return storage.ErrItemNotFound
	}
	delete(f.items, id)
	return nil
}

type fakePrintOrderRepo struct {
	orders map[int64]*models.PrintOrder
}

var _ storage.PrintOrderStorage = (*fakePrintOrderRepo)(nil)

func newFakePrintOrderRepo() *fakePrintOrderRepo {
	return &fakePrintOrderRepo{orders: make(map[int64]*models.PrintOrder)}
}

func (f *fakePrintOrderRepo) CreatePrintOrder(ctx context.Context, order *models.PrintOrder) (*models.PrintOrder, error) {
	order.ID = int64(len(f.orders) + 1)
	order.Status = models.PrintPending
	order.CreatedAt = time.Now()
	stored := *order
	f.orders[order.ID] = &stored
	return order, nil
}

func (f *fakePrintOrderRepo) GetPrintOrder(ctx context.Context, id int64) (*models.PrintOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakePrintOrderRepo) AssignVendorIfUnset(ctx context.Context, id, vendorID int64) (bool, error) {
	o, ok := f.orders[id]
	if !ok || o.VendorID != nil {
		return false, nil
	}
	o.VendorID = &vendorID
	return true, nil
}

func (f *fakePrintOrderRepo) ClaimPrintOrder(ctx context.Context, id, vendorID int64) (bool, error) {
	o, ok := f.orders[id]
	if !ok || !o.Unassigned() {
		return false, nil
	}
	o.VendorID = &vendorID
	return true, nil
}

func (f *fakePrintOrderRepo) UpdatePrintOrderStatus(ctx context.Context, id, vendorID int64, status models.PrintStatus, scheduled *time.Time) error {
	o, ok := f.orders[id]
	if !ok || o.VendorID == nil || *o.VendorID != vendorID {
		return storage.ErrOrderNotFound
	}
	o.Status = status
	if scheduled != nil {
		o.ScheduledTime = scheduled
	}
	return nil
}

func (f *fakePrintOrderRepo) filter(keep func(o *models.PrintOrder) bool) []*models.PrintOrder {
	var out []*models.PrintOrder
	for _, o := range f.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakePrintOrderRepo) ListPrintOrdersByStudent(ctx context.Context, studentID int64) ([]*models.PrintOrder, error) {
	return f.filter(func(o *models.PrintOrder) bool { return o.StudentID == studentID }), nil
}

func (f *fakePrintOrderRepo) ListPrintOrdersForVendor(ctx context.Context, vendorID int64) ([]*models.PrintOrder, error) {
	return f.filter(func(o *models.PrintOrder) bool {
		return (o.VendorID != nil && *o.VendorID == vendorID) || o.Unassigned()
	}), nil
}

func (f *fakePrintOrderRepo) stats(keep func(o *models.PrintOrder) bool) *models.PrintOrderStats {
	stats := &models.PrintOrderStats{}
	for _, o := range f.orders {
		if !keep(o) {
			continue
		}
		stats.Total++
		switch o.Status {
		case models.PrintInProgress:
			stats.InProgress++
		case models.PrintDone:
			stats.Completed++
		}
	}
	return stats
}

func (f *fakePrintOrderRepo) StatsByStudent(ctx context.Context, studentID int64) (*models.PrintOrderStats, error) {
	return f.stats(func(o *models.PrintOrder) bool { return o.StudentID == studentID }), nil
}

func (f *fakePrintOrderRepo) StatsByVendor(ctx context.Context, vendorID int64) (*models.PrintOrderStats, error) {
	return f.stats(func(o *models.PrintOrder) bool { return o.VendorID != nil && *o.VendorID == vendorID }), nil
}

// fakeShopOrderRepo подтягивает название, цену и продавца из фейковых каталогов, как JOIN в хранилище
type fakeShopOrderRepo struct {
	orders      map[int64]*models.ShopOrder
	sessions    map[string]int64
	vendorItems *fakeVendorItemRepo
	peerItems   *fakePeerItemRepo
}

var _ storage.ShopOrderStorage = (*fakeShopOrderRepo)(nil)

func newFakeShopOrderRepo(vendorItems *fakeVendorItemRepo, peerItems *fakePeerItemRepo) *fakeShopOrderRepo {
	return &fakeShopOrderRepo{
		orders:      make(map[int64]*models.ShopOrder),
		sessions:    make(map[string]int64),
		vendorItems: vendorItems,
		peerItems:   peerItems,
	}
}

func (f *fakeShopOrderRepo) hydrate(o *models.ShopOrder) *models.ShopOrder {
	copied := *o
	switch o.Source {
	case models.SourceVendor:
		if it, ok := f.vendorItems.items[o.ItemID]; ok {
			copied.ItemName, copied.UnitPrice, copied.SellerID = it.Name, it.Price, it.VendorID
		}
	case models.SourcePeer:
		if it, ok := f.peerItems.items[o.ItemID]; ok {
			copied.ItemName, copied.UnitPrice, copied.SellerID = it.Name, it.Price, it.StudentID
		}
	}
	return &copied
}

func (f *fakeShopOrderRepo) CreateShopOrder(ctx context.Context, tx *sql.Tx, order *models.ShopOrder) (*models.ShopOrder, error) {
	order.ID = int64(len(f.orders) + 1)
	order.CreatedAt = time.Now()
	stored := *order
	f.orders[order.ID] = &stored
	return order, nil
}

func (f *fakeShopOrderRepo) GetShopOrder(ctx context.Context, id int64) (*models.ShopOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return f.hydrate(o), nil
}

func (f *fakeShopOrderRepo) GetBuyerShopOrder(ctx context.Context, id, buyerID int64) (*models.ShopOrder, error) {
	o, ok := f.orders[id]
	if !ok || o.BuyerID != buyerID {
		return nil, storage.ErrOrderNotFound
	}
	return f.hydrate(o), nil
}

func (f *fakeShopOrderRepo) ListShopOrdersByBuyer(ctx context.Context, buyerID int64) ([]*models.ShopOrder, error) {
	var out []*models.ShopOrder
	for _, o := range f.orders {
		if o.BuyerID == buyerID {
			out = append(out, f.hydrate(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeShopOrderRepo) ListShopOrdersBySeller(ctx context.Context, source models.ItemSource, sellerID int64) ([]*models.ShopOrder, error) {
	var out []*models.ShopOrder
	for _, o := range f.orders {
		h := f.hydrate(o)
		if h.Source == source && h.SellerID == sellerID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeShopOrderRepo) UpdateShopOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeShopOrderRepo) CancelBuyerShopOrder(ctx context.Context, id, buyerID int64) error {
	o, ok := f.orders[id]
	if !ok || o.BuyerID != buyerID || o.Status.Terminal() {
		return storage.ErrOrderNotFound
	}
	o.Status = models.OrderCanceled
	return nil
}

func (f *fakeShopOrderRepo) SetDeliveryDetails(ctx context.Context, id, buyerID int64, details string) error {
	o, ok := f.orders[id]
	if !ok || o.BuyerID != buyerID {
		return storage.ErrOrderNotFound
	}
	o.DeliveryDetails = details
	return nil
}

func (f *fakeShopOrderRepo) SetSessionID(ctx context.Context, id, buyerID int64, sessionID string) error {
	o, ok := f.orders[id]
	if !ok || o.BuyerID != buyerID {
		return storage.ErrOrderNotFound
	}
	o.SessionID = sessionID
	return nil
}

func (f *fakeShopOrderRepo) MarkPaid(ctx context.Context, id int64) error {
	o, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.PaymentStatus = models.PaymentPaid
	return nil
}

func (f *fakeShopOrderRepo) RegisterCheckoutSession(ctx context.Context, tx *sql.Tx, sessionID string, buyerID int64) (bool, error) {
	if _, ok := f.sessions[sessionID]; ok {
		return false, nil
	}
	f.sessions[sessionID] = buyerID
	return true, nil
}

type fakeCartRepo struct {
	lines  map[int64][]*models.CartLine // ключ: userID
	nextID int64
	items  *fakeVendorItemRepo
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo(items *fakeVendorItemRepo) *fakeCartRepo {
	return &fakeCartRepo{lines: make(map[int64][]*models.CartLine), items: items}
}

func (f *fakeCartRepo) snapshot(userID int64) []models.CartLine {
	var out []models.CartLine
	for _, l := range f.lines[userID] {
		copied := *l
		if it, ok := f.items.items[l.ItemID]; ok {
			copied.ItemName, copied.UnitPrice = it.Name, it.Price
		}
		out = append(out, copied)
	}
	return out
}

func (f *fakeCartRepo) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	return &models.Cart{ID: userID, UserID: userID, Lines: f.snapshot(userID)}, nil
}

func (f *fakeCartRepo) AddItem(ctx context.Context, userID, itemID int64) (*models.CartLine, error) {
	if _, ok := f.items.items[itemID]; !ok {
		return nil, storage.ErrItemNotFound
	}
	for _, l := range f.lines[userID] {
		if l.ItemID == itemID {
			l.Quantity++
			copied := *l
			return &copied, nil
		}
	}
	f.nextID++
	line := &models.CartLine{ID: f.nextID, CartID: userID, ItemID: itemID, Quantity: 1}
	f.lines[userID] = append(f.lines[userID], line)
	copied := *line
	return &copied, nil
}

func (f *fakeCartRepo) RemoveLine(ctx context.Context, lineID, userID int64) error {
	lines := f.lines[userID]
	for i, l := range lines {
		if l.ID == lineID {
			f.lines[userID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return storage.ErrCartLineNotFound
}

func (f *fakeCartRepo) LockCartLines(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error) {
	return f.snapshot(userID), nil
}

func (f *fakeCartRepo) DeleteCart(ctx context.Context, tx *sql.Tx, userID int64) error {
	delete(f.lines, userID)
	return nil
}

type fakeDelivery struct {
	held map[string]models.DeliveryDetails
	ttl  time.Duration
}

var _ storage.DeliveryStorage = (*fakeDelivery)(nil)

func newFakeDelivery() *fakeDelivery {
	return &fakeDelivery{held: make(map[string]models.DeliveryDetails)}
}

func (f *fakeDelivery) SaveDelivery(ctx context.Context, sessionID string, details models.DeliveryDetails, ttl time.Duration) error {
	f.held[sessionID] = details
	f.ttl = ttl
	return nil
}

func (f *fakeDelivery) GetDelivery(ctx context.Context, sessionID string) (*models.DeliveryDetails, error) {
	d, ok := f.held[sessionID]
	if !ok {
		return nil, storage.ErrDeliveryNotFound
	}
	return &d, nil
}

func (f *fakeDelivery) DeleteDelivery(ctx context.Context, sessionID string) error {
	delete(f.held, sessionID)
	return nil
}

type fakeDocuments struct {
	saved map[string]string
	err   error
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{saved: make(map[string]string)}
}

func (f *fakeDocuments) Save(folder, filename string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty file")
	}
	path := folder + "/" + filename
	f.saved[path] = string(data)
	return path, nil
}

// fixedPicker всегда выбирает заданный индекс и запоминает размер выборки
type fixedPicker struct {
	index int
	lastN int
	calls int
}

func (p *fixedPicker) Pick(n int) int {
	p.calls++
	p.lastN = n
	return p.index
}
