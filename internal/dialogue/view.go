package dialogue

import (
	"context"
	"strings"

	"pizzatalk/internal/gateway"
	"pizzatalk/internal/nlu"
	"pizzatalk/internal/response"
	"pizzatalk/internal/segment"
)

// handleViewMenu answers menu questions: named pizzas get their detail
// blocks, anything else gets the full menu.
func (m *Manager) handleViewMenu(ctx context.Context, st *State, message string) (string, error) {
	rawIdx, err := m.order.PredictWithIndex(ctx, message)
	if err != nil {
		return "", err
	}
	indexed, err := verifyIndexedEntities(rawIdx, []nlu.EntityKind{nlu.KindPizza, nlu.KindSize})
	if err != nil {
		return "", err
	}

	if len(indexed.Pizzas) == 0 {
		return m.fullMenu(ctx)
	}

	drafts, _, err := segment.Split(indexed)
	if err != nil {
		return "", err
	}

	var reply strings.Builder
	for _, d := range drafts {
		if d.Pizza == "" {
			continue
		}
		if d.Size != "" {
			reply.WriteString(response.Render(m.store.Pick("view_menu", "Pizza_Size"), map[string]string{
				"pizza_name": titleCase(d.Pizza),
				"size":       strings.ToUpper(d.Size),
			}) + "\n")
			product, err := m.backend.ProductByName(ctx, d.Pizza, d.Size)
			if err != nil {
				return "", err
			}
			reply.WriteString(formatMenuItem(product, m.backend.StoreID()))
			reply.WriteString(separator)
		} else {
			reply.WriteString(response.Render(m.store.Pick("view_menu", "Pizza"), map[string]string{
				"pizza_name": titleCase(d.Pizza),
			}) + "\n")
			// No size given: show the standard size.
			product, err := m.backend.ProductByName(ctx, d.Pizza, "l")
			if err != nil {
				return "", err
			}
			reply.WriteString(formatMenuItem(product, m.backend.StoreID()))
			reply.WriteString(separator)
		}
	}
	return reply.String(), nil
}

func (m *Manager) fullMenu(ctx context.Context) (string, error) {
	menu, err := m.backend.Menu(ctx)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(menu))
	for _, p := range menu {
		lines = append(lines, "-- "+titleCase(p.Name)+". Mô tả: "+p.Description)
	}
	return m.store.Pick("view_menu", "unknown") + "\n" + strings.Join(lines, "\n"), nil
}

// handleViewCart shows the cart lines matching the named pizzas, or a
// numbered summary of everything when no pizza is named.
func (m *Manager) handleViewCart(ctx context.Context, st *State, message string) (string, error) {
	raw, err := m.order.Predict(ctx, message)
	if err != nil {
		return "", err
	}
	e, err := verifyOrderEntities(raw, []nlu.EntityKind{nlu.KindPizza})
	if err != nil {
		return "", err
	}

	cart, err := m.backend.ActiveCart(ctx, st.UserID)
	if err != nil {
		return "", err
	}
	items, err := m.backend.CartItems(ctx, cart.ID)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return m.store.Pick("view_cart", "empty"), nil
	}

	if len(e.Pizzas) == 0 {
		return m.cartListing(items, "view_cart", true), nil
	}

	nonexist := append([]string(nil), e.Pizzas...)
	var reply strings.Builder
	for _, ci := range items {
		name := gateway.CanonicalPizzaName(ci.Product)
		if !contains(e.Pizzas, name) {
			continue
		}
		nonexist = remove(nonexist, name)
		reply.WriteString(response.Render(m.store.Pick("view_cart", "Pizza", "exist"), map[string]string{
			"pizza_name": titleCase(ci.Product.Name),
		}) + "\n")
		reply.WriteString(formatCartItem(ci))
		reply.WriteString(separator)
	}

	if len(nonexist) > 0 {
		reply.WriteString(response.Render(m.store.Pick("view_cart", "Pizza", "nonexist"), map[string]string{
			"pizza_name": strings.Join(nonexist, ", "),
		}))
	}
	return reply.String(), nil
}

// cartListing renders the numbered one-line summary of the whole cart
// under the intent's "which item did you mean" opener.
func (m *Manager) cartListing(items []gateway.CartItem, intentKey string, withPrice bool) string {
	lines := make([]string, 0, len(items))
	for i, ci := range items {
		lines = append(lines, cartSummaryLine(i+1, ci, withPrice))
	}
	return m.store.Pick(intentKey, "unknown") + "\n" + strings.Join(lines, "\n")
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func remove(values []string, v string) []string {
	for i, x := range values {
		if x == v {
			return append(values[:i], values[i+1:]...)
		}
	}
	return values
}
