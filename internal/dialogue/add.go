package dialogue

import (
	"context"
	"strconv"
	"strings"

	"pizzatalk/internal/catalog"
	"pizzatalk/internal/gateway"
	"pizzatalk/internal/response"
	"pizzatalk/internal/segment"
)

const (
	addHeader = "Dựa vào yêu cầu của bạn, có vẻ như bạn muốn đặt các món như sau:"
	ynFooter  = "Nếu đúng, bạn nhắn 'Y' để xác nhận nha. Nếu có gì sai, bạn nhắn 'N' giúp mình nhé."
)

// handleAddToCart parses the ordered items into drafts and asks the
// user to confirm them before anything is sent to the backend.
func (m *Manager) handleAddToCart(ctx context.Context, st *State, message string) (string, error) {
	drafts, err := m.buildDrafts(ctx, message)
	if err != nil {
		return "", err
	}

	st.PendingAdd = append(st.PendingAdd, drafts...)
	st.PendingConfirmation = ConfirmAdd

	var body strings.Builder
	for i, d := range st.PendingAdd {
		body.WriteString("Món " + strconv.Itoa(i+1) + ". \n")
		body.WriteString(formatDraft(d))
		body.WriteString(separator)
	}
	return addHeader + separator + body.String() + ynFooter, nil
}

// buildDrafts turns one message into item drafts, via the single-item
// shortcut when at most one of each anchor kind occurs and via
// positional segmentation otherwise.
func (m *Manager) buildDrafts(ctx context.Context, message string) ([]segment.Draft, error) {
	raw, err := m.order.Predict(ctx, message)
	if err != nil {
		return nil, err
	}
	plain, err := verifyOrderEntities(raw, checkAll)
	if err != nil {
		return nil, err
	}

	if isSingleItem(plain) {
		return []segment.Draft{draftFromEntities(plain)}, nil
	}

	rawIdx, err := m.order.PredictWithIndex(ctx, message)
	if err != nil {
		return nil, err
	}
	indexed, err := verifyIndexedEntities(rawIdx, checkAll)
	if err != nil {
		return nil, err
	}

	drafts, _, err := segment.Split(indexed)
	return drafts, err
}

// settleDrafts finalizes what it can and prompts for the rest. On the
// first pass every complete draft is sent to the backend and the
// incomplete ones are numbered and kept; on later passes the front
// draft just became complete and is finalized alone.
func (m *Manager) settleDrafts(ctx context.Context, st *State, firstPass bool) (string, error) {
	var parts []string

	if firstPass {
		var kept []segment.Draft
		for i, d := range st.PendingAdd {
			if d.Complete() {
				line, err := m.finalizeDraft(ctx, st, d)
				if err != nil {
					return "", err
				}
				parts = append(parts, line)
			} else {
				d.ID = i + 1
				kept = append(kept, d)
			}
		}
		st.PendingAdd = kept
	} else {
		line, err := m.finalizeDraft(ctx, st, st.PendingAdd[0])
		if err != nil {
			return "", err
		}
		st.PendingAdd = st.PendingAdd[1:]
		parts = append(parts, line)
	}

	if len(st.PendingAdd) > 0 {
		parts = append(parts, m.missingPrompt(st.PendingAdd[0]))
	}
	return strings.Join(parts, separator), nil
}

// missingPrompt asks for every field the front draft still lacks.
func (m *Manager) missingPrompt(d segment.Draft) string {
	var missing []string
	if d.Quantity == 0 {
		missing = append(missing, m.store.Pick("add_to_cart", "missing_quantity"))
	}
	if d.Pizza == "" {
		missing = append(missing, m.store.Pick("add_to_cart", "missing_pizza"))
	}
	if d.Size == "" {
		missing = append(missing, m.store.Pick("add_to_cart", "missing_size"))
	}
	if d.Crust == "" {
		missing = append(missing, m.store.Pick("add_to_cart", "missing_crust"))
	}
	if len(d.Toppings) == 0 {
		missing = append(missing, m.store.Pick("add_to_cart", "missing_topping"))
	}
	return m.store.Line(map[string]string{
		"id":             strconv.Itoa(d.ID),
		"missing_entity": strings.Join(missing, ", "),
	}, "add_to_cart", "missing_template")
}

// handlePendingDraft folds the user's answer into the front draft and
// either finalizes it or asks for the next missing field.
func (m *Manager) handlePendingDraft(ctx context.Context, st *State, message string) (string, error) {
	raw, err := m.order.Predict(ctx, message)
	if err != nil {
		return "", err
	}
	e, err := verifyOrderEntities(raw, checkAll)
	if err != nil {
		return "", err
	}

	d := &st.PendingAdd[0]
	if strings.Contains(message, "không topping") {
		d.Toppings = []string{catalog.NoToppingSentinel}
	}

	type fieldState struct {
		key      string
		provided bool
		empty    bool
		fill     func()
	}
	fields := []fieldState{
		{"pizza", len(e.Pizzas) > 0, d.Pizza == "", func() { d.Pizza = e.Pizzas[0] }},
		{"quantity", len(e.Quantities) > 0, d.Quantity == 0, func() { d.Quantity = e.Quantities[0] }},
		{"size", len(e.Sizes) > 0, d.Size == "", func() { d.Size = e.Sizes[0] }},
		{"crust", len(e.Crusts) > 0, d.Crust == "", func() { d.Crust = e.Crusts[0] }},
		{"topping", len(e.Toppings) > 0, len(d.Toppings) == 0, func() { d.Toppings = e.Toppings }},
	}

	for _, f := range fields {
		if f.provided && f.empty {
			f.fill()
		} else if !f.provided && f.empty {
			return m.store.Line(map[string]string{
				"id":             strconv.Itoa(d.ID),
				"missing_entity": m.store.Pick("add_to_cart", "missing_"+f.key),
			}, "add_to_cart", "missing_template"), nil
		}
	}

	return m.settleDrafts(ctx, st, false)
}

// finalizeDraft creates the cart line for a complete draft and renders
// its confirmation sentence.
func (m *Manager) finalizeDraft(ctx context.Context, st *State, d segment.Draft) (string, error) {
	cart, err := m.backend.ActiveCart(ctx, st.UserID)
	if err != nil {
		return "", err
	}
	product, err := m.backend.ProductByName(ctx, d.Pizza, d.Size)
	if err != nil {
		return "", err
	}

	req := gateway.CartItemRequest{
		Quantity:        d.Quantity,
		CartID:          cart.ID,
		ProductID:       product.ID,
		OptionDetailIDs: optionDetailIDs(d.Crust, d.Toppings, product),
	}
	if err := m.backend.CreateCartItem(ctx, req); err != nil {
		return "", err
	}

	topping := "không topping thêm"
	if len(d.Toppings) > 0 && !isNoTopping(d.Toppings) {
		topping = "kèm " + strings.Join(d.Toppings, ", ")
	}
	return response.Render(m.store.Pick("add_to_cart", "all"), map[string]string{
		"quantity":   strconv.Itoa(d.Quantity),
		"pizza_name": d.Pizza,
		"size":       d.Size,
		"crust":      d.Crust,
		"topping":    topping,
	}), nil
}

func isNoTopping(toppings []string) bool {
	for _, t := range toppings {
		if t == catalog.NoToppingSentinel {
			return true
		}
	}
	return false
}

// optionDetailIDs resolves a crust choice and topping names to the
// product's option detail ids.
func optionDetailIDs(crust string, toppings []string, product *gateway.Product) []int {
	var ids []int
	switch strings.ToLower(crust) {
	case "dày":
		ids = append(ids, gateway.CrustThickID)
	case "mỏng":
		ids = append(ids, gateway.CrustThinID)
	}
	ids = append(ids, toppingIDs(product, toppings)...)
	return ids
}

// toppingIDs maps catalog topping names to the product's topping
// option details. The explicit no-topping sentinel maps to none.
func toppingIDs(product *gateway.Product, toppings []string) []int {
	if isNoTopping(toppings) {
		return nil
	}
	wanted := make(map[string]struct{}, len(toppings))
	for _, t := range toppings {
		wanted[strings.ToLower(t)] = struct{}{}
	}

	var ids []int
	for _, od := range product.OptionDetails {
		if od.OptionID != gateway.OptionIDTopping {
			continue
		}
		if _, ok := wanted[strings.ToLower(od.Name)]; ok {
			ids = append(ids, od.ID)
		}
	}
	return ids
}
