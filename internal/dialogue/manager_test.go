package dialogue

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzatalk/internal/common/errors"
	"pizzatalk/internal/common/logger"
	"pizzatalk/internal/gateway"
	"pizzatalk/internal/nlu"
	"pizzatalk/internal/response"
)

type fakeIntents struct {
	byMessage map[string]nlu.Intent
}

func (f *fakeIntents) PredictIntent(_ context.Context, text string) (nlu.Intent, error) {
	return f.byMessage[text], nil
}

type fakeRecognizer struct {
	plain   map[string]map[nlu.EntityKind][]string
	indexed map[string]map[nlu.EntityKind][]nlu.Occurrence
}

func (f *fakeRecognizer) Predict(_ context.Context, text string) (map[nlu.EntityKind][]string, error) {
	return f.plain[text], nil
}

func (f *fakeRecognizer) PredictWithIndex(_ context.Context, text string) (map[nlu.EntityKind][]nlu.Occurrence, error) {
	return f.indexed[text], nil
}

type fakeBackend struct {
	products map[string]*gateway.Product
	menu     []gateway.Product
	cart     gateway.Cart
	items    []gateway.CartItem

	created []gateway.CartItemRequest
	updated map[int]gateway.CartItemRequest
	deleted []int

	createErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		products: make(map[string]*gateway.Product),
		cart:     gateway.Cart{ID: 42, UserID: 1, Status: "ACTIVE"},
		updated:  make(map[int]gateway.CartItemRequest),
	}
}

func productKey(name, size string) string { return name + "|" + size }

func (f *fakeBackend) ProductByName(_ context.Context, name, size string) (*gateway.Product, error) {
	if p, ok := f.products[productKey(name, size)]; ok {
		return p, nil
	}
	return nil, &errors.BackendError{Code: errors.ErrCodeBackendNotFound, Operation: gateway.OpLoadProduct}
}

func (f *fakeBackend) Menu(_ context.Context) ([]gateway.Product, error) { return f.menu, nil }

func (f *fakeBackend) ActiveCart(_ context.Context, userID int) (*gateway.Cart, error) {
	cart := f.cart
	return &cart, nil
}

func (f *fakeBackend) CartItems(_ context.Context, cartID int) ([]gateway.CartItem, error) {
	return f.items, nil
}

func (f *fakeBackend) CartItem(_ context.Context, id int) (*gateway.CartItem, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, &errors.BackendError{Code: errors.ErrCodeBackendNotFound, Operation: gateway.OpLoadCartItem}
}

func (f *fakeBackend) CreateCartItem(_ context.Context, req gateway.CartItemRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, req)
	return nil
}

func (f *fakeBackend) UpdateCartItem(_ context.Context, id int, req gateway.CartItemRequest) error {
	f.updated[id] = req
	return nil
}

func (f *fakeBackend) DeleteCartItem(_ context.Context, id int) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) StoreID() int { return 1 }

type fixture struct {
	manager  *Manager
	intents  *fakeIntents
	order    *fakeRecognizer
	customer *fakeRecognizer
	backend  *fakeBackend
	store    *response.Store
	state    *State
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := response.NewStore("", 1, logger.NewTestLogger(t))
	require.NoError(t, err)

	f := &fixture{
		intents: &fakeIntents{byMessage: make(map[string]nlu.Intent)},
		order: &fakeRecognizer{
			plain:   make(map[string]map[nlu.EntityKind][]string),
			indexed: make(map[string]map[nlu.EntityKind][]nlu.Occurrence),
		},
		customer: &fakeRecognizer{
			plain: make(map[string]map[nlu.EntityKind][]string),
		},
		backend: newFakeBackend(),
		store:   store,
		state:   NewState(1),
	}
	f.manager = NewManager(f.intents, f.order, f.customer, f.backend, store, logger.NewTestLogger(t))
	return f
}

func (f *fixture) handle(msg string) string {
	return f.manager.HandleMessage(context.Background(), f.state, msg)
}

func hawaiianL() *gateway.Product {
	return &gateway.Product{
		ID:   7,
		Name: "Pizza Hawaiian",
		Size: "L",
		OptionDetails: []gateway.OptionDetail{
			{ID: 1, Name: "Dày", OptionID: gateway.OptionIDCrust},
			{ID: 2, Name: "Mỏng", OptionID: gateway.OptionIDCrust},
			{ID: 12, Name: "Tôm", OptionID: gateway.OptionIDTopping},
			{ID: 13, Name: "Mực", OptionID: gateway.OptionIDTopping},
		},
		StockItems: []gateway.StockItem{
			{ID: 1, TotalQuantity: 10, SellingPrice: 150000, StoreID: 1, ProductID: 7},
		},
	}
}

func hawaiianCartItem(id int) gateway.CartItem {
	return gateway.CartItem{
		ID:       id,
		Quantity: 1,
		Price:    150000,
		Product:  *hawaiianL(),
		OptionDetails: []gateway.OptionDetail{
			{ID: 1, Name: "Dày", OptionID: gateway.OptionIDCrust},
		},
	}
}

func TestUnknownIntent(t *testing.T) {
	f := newFixture(t)
	reply := f.handle("thời tiết thế nào")

	variants, err := f.store.Lookup("unknown")
	require.NoError(t, err)
	assert.Contains(t, variants, reply)
}

func TestAddCompleteItemThenConfirm(t *testing.T) {
	f := newFixture(t)
	msg := "cho mình 2 hawaiian cỡ l đế dày kèm tôm"
	f.intents.byMessage[msg] = nlu.IntentAddToCart
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza:    {"hawaiian"},
		nlu.KindQuantity: {"2"},
		nlu.KindSize:     {"l"},
		nlu.KindCrust:    {"đế dày"},
		nlu.KindTopping:  {"tôm"},
	}
	f.backend.products[productKey("hawaiian", "l")] = hawaiianL()

	reply := f.handle(msg)
	assert.Contains(t, reply, "Món 1")
	assert.Contains(t, reply, "Hawaiian")
	assert.Equal(t, ConfirmAdd, f.state.PendingConfirmation)
	require.Len(t, f.state.PendingAdd, 1)
	assert.Empty(t, f.backend.created)

	reply = f.handle("Y")
	assert.Contains(t, reply, "hawaiian")
	assert.Equal(t, ConfirmNone, f.state.PendingConfirmation)
	assert.Empty(t, f.state.PendingAdd)
	require.Len(t, f.backend.created, 1)

	req := f.backend.created[0]
	assert.Equal(t, 2, req.Quantity)
	assert.Equal(t, 42, req.CartID)
	assert.Equal(t, 7, req.ProductID)
	assert.Equal(t, []int{1, 12}, req.OptionDetailIDs)
	assert.Zero(t, f.state.ActiveRoutes())
}

func TestAddIncompleteItemCollectsFields(t *testing.T) {
	f := newFixture(t)
	msg := "cho mình một hawaiian"
	f.intents.byMessage[msg] = nlu.IntentAddToCart
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza:    {"hawaiian"},
		nlu.KindQuantity: {"một"},
	}
	f.backend.products[productKey("hawaiian", "l")] = hawaiianL()

	f.handle(msg)
	reply := f.handle("Y")
	// Nothing was created yet; the draft misses size, crust, topping.
	assert.Empty(t, f.backend.created)
	require.Len(t, f.state.PendingAdd, 1)
	assert.Equal(t, 1, f.state.PendingAdd[0].ID)
	assert.Contains(t, reply, "Món 1")

	sizeMsg := "cỡ l nhé"
	f.order.plain[sizeMsg] = map[nlu.EntityKind][]string{nlu.KindSize: {"l"}}
	f.handle(sizeMsg)
	assert.Equal(t, "l", f.state.PendingAdd[0].Size)

	crustMsg := "đế dày"
	f.order.plain[crustMsg] = map[nlu.EntityKind][]string{nlu.KindCrust: {"đế dày"}}
	f.handle(crustMsg)
	assert.Equal(t, "dày", f.state.PendingAdd[0].Crust)

	reply = f.handle("không topping đâu")
	assert.Empty(t, f.state.PendingAdd)
	require.Len(t, f.backend.created, 1)
	assert.Contains(t, reply, "hawaiian")

	// The explicit no-topping choice adds only the crust option.
	assert.Equal(t, []int{1}, f.backend.created[0].OptionDetailIDs)
}

func TestAddInvalidPizza(t *testing.T) {
	f := newFixture(t)
	msg := "cho mình một trà sữa"
	f.intents.byMessage[msg] = nlu.IntentAddToCart
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza: {"trà sữa"},
	}

	reply := f.handle(msg)
	assert.Contains(t, reply, "trà sữa")
	assert.Empty(t, f.state.PendingAdd)
	assert.Equal(t, ConfirmNone, f.state.PendingConfirmation)
}

func TestAddDeclined(t *testing.T) {
	f := newFixture(t)
	msg := "một hawaiian size l"
	f.intents.byMessage[msg] = nlu.IntentAddToCart
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza:    {"hawaiian"},
		nlu.KindQuantity: {"1"},
		nlu.KindSize:     {"l"},
	}

	f.handle(msg)
	reply := f.handle("N")

	variants, err := f.store.Lookup("add_to_cart", "no")
	require.NoError(t, err)
	assert.Contains(t, variants, reply)
	assert.Empty(t, f.state.PendingAdd)
	assert.Zero(t, f.state.ActiveRoutes())
}

func TestConfirmationLoopsUntilYesOrNo(t *testing.T) {
	f := newFixture(t)
	msg := "một hawaiian size l"
	f.intents.byMessage[msg] = nlu.IntentAddToCart
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza: {"hawaiian"},
	}

	f.handle(msg)
	reply := f.handle("ừ đúng rồi")

	variants, err := f.store.Lookup("yes_no_loop")
	require.NoError(t, err)
	assert.Contains(t, variants, reply)
	assert.Equal(t, ConfirmAdd, f.state.PendingConfirmation)
}

func TestBackendErrorKeepsConfirmationPending(t *testing.T) {
	f := newFixture(t)
	msg := "2 hawaiian size l đế dày kèm tôm"
	f.intents.byMessage[msg] = nlu.IntentAddToCart
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza:    {"hawaiian"},
		nlu.KindQuantity: {"2"},
		nlu.KindSize:     {"l"},
		nlu.KindCrust:    {"dày"},
		nlu.KindTopping:  {"tôm"},
	}
	f.backend.products[productKey("hawaiian", "l")] = hawaiianL()
	f.backend.createErr = errors.NewBackendError(gateway.OpCreateCartItem, 500)

	f.handle(msg)
	reply := f.handle("Y")

	assert.Contains(t, reply, "thêm món vào giỏ hàng")
	// Still pending: the user can answer Y again after the backend
	// recovers.
	assert.Equal(t, ConfirmAdd, f.state.PendingConfirmation)
	require.Len(t, f.state.PendingAdd, 1)
}

func TestRemoveDisambiguation(t *testing.T) {
	f := newFixture(t)
	f.backend.items = []gateway.CartItem{
		hawaiianCartItem(101),
		hawaiianCartItem(102),
		hawaiianCartItem(103),
	}

	msg := "xoá hawaiian khỏi giỏ"
	f.intents.byMessage[msg] = nlu.IntentRemoveFromCart
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza: {"hawaiian"},
	}

	reply := f.handle(msg)
	assert.Contains(t, reply, "1. Pizza Hawaiian")
	assert.Equal(t, ConfirmRemove, f.state.PendingConfirmation)

	reply = f.handle("Y")
	// Three matches: nothing deleted yet, the user must pick.
	assert.Empty(t, f.backend.deleted)
	assert.Contains(t, reply, "nhiều hơn 1 món")
	assert.Contains(t, reply, "4. "+deleteAllLabel)
	assert.Equal(t, ConfirmNone, f.state.PendingConfirmation)
	require.Len(t, f.state.PendingRemove, 1)

	reply = f.handle("xoá cái đầu")
	variants, err := f.store.Lookup("ask_for_info")
	require.NoError(t, err)
	assert.Contains(t, variants, reply)

	reply = f.handle("9")
	variants, err = f.store.Lookup("choice_out_of_range")
	require.NoError(t, err)
	assert.Contains(t, variants, reply)
	require.Len(t, f.state.PendingRemove, 1)

	f.handle("1")
	assert.Equal(t, []int{101}, f.backend.deleted)
	assert.Empty(t, f.state.PendingRemove)
	assert.Zero(t, f.state.ActiveRoutes())
}

func TestRemoveAllReservedIndex(t *testing.T) {
	f := newFixture(t)
	f.backend.items = []gateway.CartItem{
		hawaiianCartItem(101),
		hawaiianCartItem(102),
	}

	msg := "bỏ hawaiian ra"
	f.intents.byMessage[msg] = nlu.IntentRemoveFromCart
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza: {"hawaiian"},
	}

	f.handle(msg)
	f.handle("Y")
	f.handle("3")
	assert.Equal(t, []int{101, 102}, f.backend.deleted)
	assert.Empty(t, f.state.PendingRemove)
}

func TestRemoveNonexistentPizza(t *testing.T) {
	f := newFixture(t)
	f.backend.items = []gateway.CartItem{hawaiianCartItem(101)}

	msg := "xoá seafood"
	f.intents.byMessage[msg] = nlu.IntentRemoveFromCart
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza: {"seafood"},
	}

	reply := f.handle(msg)
	assert.Contains(t, reply, "seafood")
	assert.Equal(t, ConfirmNone, f.state.PendingConfirmation)
	assert.Empty(t, f.state.PendingRemove)
}

func TestModifySingleCandidate(t *testing.T) {
	f := newFixture(t)
	f.backend.items = []gateway.CartItem{hawaiianCartItem(101)}
	f.backend.products[productKey("hawaiian", "l")] = hawaiianL()

	msg := "đổi hawaiian sang đế mỏng"
	f.intents.byMessage[msg] = nlu.IntentModifyCartItem
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza: {"hawaiian"},
		nlu.KindCrust: {"đế mỏng"},
	}

	reply := f.handle(msg)
	assert.Contains(t, reply, "1. Pizza Hawaiian")
	assert.Equal(t, ConfirmModify, f.state.PendingConfirmation)

	f.handle("Y")
	require.Contains(t, f.backend.updated, 101)
	req := f.backend.updated[101]
	assert.Equal(t, []int{gateway.CrustThinID}, req.OptionDetailIDs)
	assert.Equal(t, 1, req.Quantity)
	assert.Equal(t, 7, req.ProductID)
	assert.Zero(t, f.state.ActiveRoutes())
}

func TestConfirmOrderAsksForProfile(t *testing.T) {
	f := newFixture(t)
	f.backend.items = []gateway.CartItem{hawaiianCartItem(101)}

	msg := "chốt đơn"
	f.intents.byMessage[msg] = nlu.IntentConfirmOrder

	reply := f.handle(msg)
	assert.Contains(t, reply, "Tổng: 150000 ₫")
	assert.Equal(t, ConfirmOrder, f.state.PendingConfirmation)

	reply = f.handle("Y")
	assert.Equal(t, askDeliveryInfo, reply)
	assert.True(t, f.state.AwaitingProfile)

	// The profile loop collects one field per prompt.
	nameMsg := "mình tên Minh"
	f.customer.plain[nameMsg] = map[nlu.EntityKind][]string{
		nlu.KindCustomer: {"Minh"},
	}
	reply = f.handle(nameMsg)
	assert.Contains(t, f.state.Profile, nlu.KindCustomer)
	assert.NotEmpty(t, reply)

	addressMsg := "giao đến 12 Lý_Thường_Kiệt"
	f.customer.plain[addressMsg] = map[nlu.EntityKind][]string{
		nlu.KindAddress: {"12 Lý_Thường_Kiệt"},
	}
	f.handle(addressMsg)
	assert.Equal(t, []string{"12 Lý Thường Kiệt"}, f.state.Profile[nlu.KindAddress])

	phoneMsg := "số 0909"
	f.customer.plain[phoneMsg] = map[nlu.EntityKind][]string{
		nlu.KindPhone: {"0909"},
	}
	f.handle(phoneMsg)

	payMsg := "thanh toán tiền mặt"
	f.customer.plain[payMsg] = map[nlu.EntityKind][]string{
		nlu.KindPayment: {"tiền mặt"},
	}
	reply = f.handle(payMsg)

	assert.Contains(t, reply, "Minh")
	assert.Contains(t, reply, "tiền mặt")
	assert.False(t, f.state.AwaitingProfile)
	// Completing the order empties the cart.
	assert.Equal(t, []int{101}, f.backend.deleted)
	assert.Len(t, f.state.Profile, 4)
}

func TestProvideInfoAllAtOnce(t *testing.T) {
	f := newFixture(t)
	f.backend.items = []gateway.CartItem{hawaiianCartItem(101)}

	msg := "tên Minh, giao 12 Hàng_Bài, số 0909, trả tiền mặt"
	f.intents.byMessage[msg] = nlu.IntentProvideInfo
	f.customer.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindCustomer: {"Minh"},
		nlu.KindAddress:  {"12 Hàng_Bài"},
		nlu.KindPhone:    {"0909"},
		nlu.KindPayment:  {"tiền mặt"},
	}

	reply := f.handle(msg)
	assert.Contains(t, reply, "12 Hàng Bài")
	assert.Equal(t, []int{101}, f.backend.deleted)
	assert.Len(t, f.state.Profile, 4)
}

func TestZeroValueStateCollectsProfile(t *testing.T) {
	f := newFixture(t)
	f.state = &State{UserID: 1}

	msg := "tên Minh"
	f.intents.byMessage[msg] = nlu.IntentProvideInfo
	f.customer.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindCustomer: {"Minh"},
	}

	reply := f.handle(msg)
	assert.Equal(t, []string{"Minh"}, f.state.Profile[nlu.KindCustomer])
	assert.NotEmpty(t, reply)
}

func TestViewCartEmpty(t *testing.T) {
	f := newFixture(t)
	msg := "giỏ hàng có gì"
	f.intents.byMessage[msg] = nlu.IntentViewCart

	reply := f.handle(msg)
	variants, err := f.store.Lookup("view_cart", "empty")
	require.NoError(t, err)
	assert.Contains(t, variants, reply)
}

func TestViewCartListing(t *testing.T) {
	f := newFixture(t)
	f.backend.items = []gateway.CartItem{hawaiianCartItem(101), hawaiianCartItem(102)}
	msg := "xem giỏ hàng"
	f.intents.byMessage[msg] = nlu.IntentViewCart

	reply := f.handle(msg)
	assert.Contains(t, reply, "Món 1. 1 Pizza Hawaiian cỡ L đế dày không topping")
	assert.Contains(t, reply, "Món 2.")
}

func TestViewMenuFullListing(t *testing.T) {
	f := newFixture(t)
	f.backend.menu = []gateway.Product{
		{ID: 1, Name: "Pizza Hawaiian", Description: "Dứa và jăm bông"},
		{ID: 2, Name: "Pizza Seafood", Description: "Hải sản"},
	}
	msg := "cho xem menu"
	f.intents.byMessage[msg] = nlu.IntentViewMenu

	reply := f.handle(msg)
	assert.Contains(t, reply, "-- Pizza Hawaiian. Mô tả: Dứa và jăm bông")
	assert.Contains(t, reply, "-- Pizza Seafood")
}

func TestViewMenuNamedPizza(t *testing.T) {
	f := newFixture(t)
	f.backend.products[productKey("hawaiian", "l")] = hawaiianL()
	msg := "pizza hawaiian có gì"
	f.intents.byMessage[msg] = nlu.IntentViewMenu
	f.order.indexed[msg] = map[nlu.EntityKind][]nlu.Occurrence{
		nlu.KindPizza: {{Value: "hawaiian", Index: 1}},
	}

	reply := f.handle(msg)
	assert.Contains(t, reply, "Hawaiian")
	assert.Contains(t, reply, "Giá: 150000 ₫")
	assert.Contains(t, reply, "Topping có thể thêm: Tôm, Mực")
}

func TestMultiItemSegmentedAdd(t *testing.T) {
	f := newFixture(t)
	msg := "2 hawaiian size l và 1 seafood đế mỏng"
	f.intents.byMessage[msg] = nlu.IntentAddToCart
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza:    {"hawaiian", "seafood"},
		nlu.KindQuantity: {"2", "1"},
		nlu.KindSize:     {"size l"},
		nlu.KindCrust:    {"đế mỏng"},
	}
	f.order.indexed[msg] = map[nlu.EntityKind][]nlu.Occurrence{
		nlu.KindQuantity: {{Value: "2", Index: 0}, {Value: "1", Index: 4}},
		nlu.KindPizza:    {{Value: "hawaiian", Index: 1}, {Value: "seafood", Index: 5}},
		nlu.KindSize:     {{Value: "size l", Index: 2}},
		nlu.KindCrust:    {{Value: "đế mỏng", Index: 6}},
	}

	reply := f.handle(msg)
	assert.Contains(t, reply, "Món 1")
	assert.Contains(t, reply, "Món 2")
	require.Len(t, f.state.PendingAdd, 2)
	assert.Equal(t, "hawaiian", f.state.PendingAdd[0].Pizza)
	assert.Equal(t, 2, f.state.PendingAdd[0].Quantity)
	assert.Equal(t, "seafood", f.state.PendingAdd[1].Pizza)
	assert.Equal(t, 1, f.state.PendingAdd[1].Quantity)
}

func TestRoutingDriversStayExclusive(t *testing.T) {
	f := newFixture(t)
	f.backend.items = []gateway.CartItem{hawaiianCartItem(101), hawaiianCartItem(102)}

	msg := "xoá hawaiian"
	f.intents.byMessage[msg] = nlu.IntentRemoveFromCart
	f.order.plain[msg] = map[nlu.EntityKind][]string{
		nlu.KindPizza: {"hawaiian"},
	}

	f.handle(msg)
	f.handle("Y")
	// Only the removal choice loop drives routing now.
	assert.Equal(t, 1, f.state.ActiveRoutes())
	assert.Empty(t, f.state.PendingAdd)
	assert.Empty(t, f.state.PendingModify)
}

func TestCartSummaryFormatting(t *testing.T) {
	ci := hawaiianCartItem(1)
	ci.OptionDetails = append(ci.OptionDetails, gateway.OptionDetail{
		ID: 12, Name: "Tôm", OptionID: gateway.OptionIDTopping,
	})
	line := cartSummaryLine(3, ci, true)
	assert.Equal(t, "Món 3. 1 Pizza Hawaiian cỡ L đế dày với topping tôm. Tạm tính: 150000 ₫", line)
}

func TestTitleCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"PIZZA HAWAIIAN", "Pizza Hawaiian"},
		{"double cheese burger", "Double Cheese Burger"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, titleCase(tt.in), fmt.Sprintf("input %q", tt.in))
	}
}
