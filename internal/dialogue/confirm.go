package dialogue

import (
	"context"
	"strconv"
	"strings"

	"pizzatalk/internal/gateway"
	"pizzatalk/internal/segment"
)

const askDeliveryInfo = "Và cuối cùng, để hoàn tất quá trình xác nhận đơn, bạn vui lòng cung cấp thông tin để chúng mình giao hàng nhé."

// handleConfirmation resolves a pending y/n question. Anything other
// than y or n keeps the question pending and re-prompts.
func (m *Manager) handleConfirmation(ctx context.Context, st *State, message string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(message)) {
	case "y":
		var reply string
		var err error
		switch st.PendingConfirmation {
		case ConfirmOrder:
			if len(st.Profile) < len(profileFields) {
				st.AwaitingProfile = true
				reply = askDeliveryInfo
			} else {
				reply = m.store.Pick("confirm_order", "yes")
			}
		case ConfirmAdd:
			reply, err = m.settleDrafts(ctx, st, true)
		case ConfirmRemove:
			reply, err = m.confirmCandidates(ctx, st, ConfirmRemove)
		case ConfirmModify:
			reply, err = m.confirmCandidates(ctx, st, ConfirmModify)
		}
		if err != nil {
			// The question stays pending so the user can answer again
			// once the backend recovers.
			return "", err
		}
		st.PendingConfirmation = ConfirmNone
		return reply, nil

	case "n":
		var reply string
		switch st.PendingConfirmation {
		case ConfirmOrder:
			reply = m.store.Pick("confirm_order", "no")
		case ConfirmAdd:
			st.PendingAdd = nil
			reply = m.store.Pick("add_to_cart", "no")
		case ConfirmRemove:
			st.PendingRemove = nil
			reply = m.store.Pick("remove_from_cart", "no")
		case ConfirmModify:
			st.PendingModify = nil
			reply = m.store.Pick("modify_cart_item", "no")
		}
		st.PendingConfirmation = ConfirmNone
		return reply, nil

	default:
		return m.store.Pick("yes_no_loop"), nil
	}
}

// handleConfirmOrder recaps the cart with a running total and asks for
// the final y/n.
func (m *Manager) handleConfirmOrder(ctx context.Context, st *State) (string, error) {
	cart, err := m.backend.ActiveCart(ctx, st.UserID)
	if err != nil {
		return "", err
	}
	items, err := m.backend.CartItems(ctx, cart.ID)
	if err != nil {
		return "", err
	}

	st.PendingConfirmation = ConfirmOrder

	var body strings.Builder
	total := 0.0
	for i, ci := range items {
		body.WriteString("Món " + strconv.Itoa(i+1) + ". \n")
		body.WriteString(formatCartItem(ci))
		body.WriteString(separator)
		total += ci.Price
	}

	header := m.store.Pick("confirm_order", "header")
	footer := m.store.Pick("confirm_order", "footer")
	return header + separator + body.String() + "\nTổng: " + formatPrice(total) + " \n" + footer, nil
}

// applyModification rewrites one cart line with the requested changes,
// keeping the old value for every field the user did not mention.
func (m *Manager) applyModification(ctx context.Context, st *State, itemID int, changes segment.Draft) error {
	old, err := m.backend.CartItem(ctx, itemID)
	if err != nil {
		return err
	}

	name := gateway.CanonicalPizzaName(old.Product)
	if changes.Pizza != "" && changes.Pizza != name {
		name = changes.Pizza
	}
	size := strings.ToLower(old.Product.Size)
	if changes.Size != "" {
		size = changes.Size
	}

	product, err := m.backend.ProductByName(ctx, name, size)
	if err != nil {
		return err
	}

	cart, err := m.backend.ActiveCart(ctx, st.UserID)
	if err != nil {
		return err
	}

	quantity := old.Quantity
	if changes.Quantity > 0 {
		quantity = changes.Quantity
	}

	req := gateway.CartItemRequest{
		ID:              itemID,
		Quantity:        quantity,
		CartID:          cart.ID,
		ProductID:       product.ID,
		OptionDetailIDs: optionDetailIDs(changes.Crust, changes.Toppings, product),
	}
	return m.backend.UpdateCartItem(ctx, itemID, req)
}
