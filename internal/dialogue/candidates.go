package dialogue

import (
	"context"
	"strconv"
	"strings"

	"pizzatalk/internal/gateway"
	"pizzatalk/internal/nlu"
	"pizzatalk/internal/response"
)

const (
	removeHeader = "Dựa vào yêu cầu của bạn, có vẻ như bạn muốn xoá các món như sau khỏi giỏ hàng:\n"
	modifyHeader = "Dựa vào yêu cầu của bạn, có vẻ như bạn muốn chỉnh sửa các món sau:\n"

	chooseRemoveFooter = "Bạn vui lòng chỉ định món bạn muốn xoá bằng cách nhắn số tương ứng nhé."
	chooseModifyFooter = "Bạn vui lòng chỉ định món bạn muốn chỉnh sửa bằng cách nhắn số tương ứng nhé."

	deleteAllLabel = "Xoá hết"
)

// handleRemoveFromCart matches the named pizzas against the cart and
// asks the user to confirm the removal.
func (m *Manager) handleRemoveFromCart(ctx context.Context, st *State, message string) (string, error) {
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

	if len(e.Pizzas) == 0 {
		return m.cartListing(items, "remove_from_cart", false), nil
	}

	var groups [][]gateway.CartItem
	var nonexist []string
	for _, pizza := range dedupe(e.Pizzas) {
		var group []gateway.CartItem
		for _, ci := range items {
			if gateway.CanonicalPizzaName(ci.Product) == pizza {
				group = append(group, ci)
			}
		}
		if len(group) == 0 {
			nonexist = append(nonexist, pizza)
		} else {
			groups = append(groups, group)
		}
	}

	var reply strings.Builder
	if len(nonexist) > 0 {
		reply.WriteString(response.Render(m.store.Pick("remove_from_cart", "nonexist"), map[string]string{
			"pizza_name": strings.Join(nonexist, ", "),
		}))
	}
	if len(groups) == 0 {
		return reply.String(), nil
	}

	st.PendingRemove = groups
	st.PendingConfirmation = ConfirmRemove
	if len(nonexist) > 0 {
		reply.WriteString("\n ---------------------------------------------------------")
	}
	reply.WriteString("\n")

	reply.WriteString(removeHeader)
	for i, group := range groups {
		reply.WriteString(strconv.Itoa(i+1) + ". " + titleCase(group[0].Product.Name) + "\n")
	}
	reply.WriteString(ynFooter)
	return reply.String(), nil
}

// handleModifyCartItem matches the requested changes against the cart
// and asks the user to confirm them.
func (m *Manager) handleModifyCartItem(ctx context.Context, st *State, message string) (string, error) {
	drafts, err := m.buildDrafts(ctx, message)
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

	named := false
	var groups []ModifyGroup
	var nonexist []string
	for _, d := range drafts {
		if d.Pizza == "" {
			continue
		}
		named = true
		var candidates []gateway.CartItem
		for _, ci := range items {
			if gateway.CanonicalPizzaName(ci.Product) == d.Pizza {
				candidates = append(candidates, ci)
			}
		}
		if len(candidates) == 0 {
			nonexist = append(nonexist, d.Pizza)
		} else {
			groups = append(groups, ModifyGroup{Changes: d, Candidates: candidates})
		}
	}

	if !named {
		return m.cartListing(items, "modify_cart_item", false), nil
	}

	var reply strings.Builder
	if len(nonexist) > 0 {
		reply.WriteString(response.Render(m.store.Pick("modify_cart_item", "nonexist"), map[string]string{
			"pizza_name": strings.Join(nonexist, ", "),
		}))
	}
	if len(groups) == 0 {
		return reply.String(), nil
	}

	st.PendingModify = groups
	st.PendingConfirmation = ConfirmModify
	if len(nonexist) > 0 {
		reply.WriteString("\n ---------------------------------------------------------")
	}
	reply.WriteString("\n")

	reply.WriteString(modifyHeader)
	for i, g := range groups {
		reply.WriteString(strconv.Itoa(i+1) + ". " + titleCase(g.Candidates[0].Product.Name) + "\n")
	}
	reply.WriteString(ynFooter)
	return reply.String(), nil
}

// confirmCandidates acts on a confirmed removal or modification:
// unambiguous groups are applied immediately, ambiguous ones survive
// and the user is asked to pick by number.
func (m *Manager) confirmCandidates(ctx context.Context, st *State, kind Confirmation) (string, error) {
	var parts []string

	switch kind {
	case ConfirmRemove:
		var kept [][]gateway.CartItem
		for _, group := range st.PendingRemove {
			if len(group) == 1 {
				if err := m.backend.DeleteCartItem(ctx, group[0].ID); err != nil {
					return "", err
				}
				parts = append(parts, response.Render(m.store.Pick("remove_from_cart", "Pizza"), map[string]string{
					"pizza_name": titleCase(group[0].Product.Name),
				}))
			} else {
				kept = append(kept, group)
			}
		}
		st.PendingRemove = kept

	case ConfirmModify:
		var kept []ModifyGroup
		for _, group := range st.PendingModify {
			if len(group.Candidates) == 1 {
				if err := m.applyModification(ctx, st, group.Candidates[0].ID, group.Changes); err != nil {
					return "", err
				}
				parts = append(parts, response.Render(m.store.Pick("modify_cart_item", "Pizza"), map[string]string{
					"pizza_name": titleCase(group.Candidates[0].Product.Name),
				}))
			} else {
				kept = append(kept, group)
			}
		}
		st.PendingModify = kept
	}

	if prompt := m.choicePrompt(st, kind); prompt != "" {
		parts = append(parts, prompt)
	}
	return strings.Join(parts, separator), nil
}

// choicePrompt lists the front ambiguous group, numbered, with an
// extra delete-everything index for removals.
func (m *Manager) choicePrompt(st *State, kind Confirmation) string {
	var candidates []gateway.CartItem
	var footer string

	switch kind {
	case ConfirmRemove:
		if len(st.PendingRemove) == 0 {
			return ""
		}
		candidates = st.PendingRemove[0]
		footer = chooseRemoveFooter
	case ConfirmModify:
		if len(st.PendingModify) == 0 {
			return ""
		}
		candidates = st.PendingModify[0].Candidates
		footer = chooseModifyFooter
	default:
		return ""
	}

	var b strings.Builder
	b.WriteString("Trong giỏ hàng của bạn có nhiều hơn 1 món " +
		titleCase(candidates[0].Product.Name) + ". Sau đây là danh sách các món trùng khớp: \n")
	for i, ci := range candidates {
		b.WriteString(choiceLine(i+1, ci) + " \n")
	}
	if kind == ConfirmRemove {
		b.WriteString(strconv.Itoa(len(candidates)+1) + ". " + deleteAllLabel + " \n")
	}
	b.WriteString(footer)
	return b.String()
}

// chooseCandidate resolves a numeric disambiguation answer for the
// front pending group.
func (m *Manager) chooseCandidate(ctx context.Context, st *State, message string, kind Confirmation) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(message))
	if err != nil {
		return m.store.Pick("ask_for_info"), nil
	}
	choice := n - 1

	var parts []string

	switch kind {
	case ConfirmRemove:
		group := st.PendingRemove[0]
		switch {
		case choice > len(group) || choice < 0:
			return m.store.Pick("choice_out_of_range"), nil
		case choice == len(group):
			// The reserved index after the list: delete every candidate.
			for _, ci := range group {
				if err := m.backend.DeleteCartItem(ctx, ci.ID); err != nil {
					return "", err
				}
				parts = append(parts, response.Render(m.store.Pick("remove_from_cart", "Pizza"), map[string]string{
					"pizza_name": strings.ToLower(ci.Product.Name),
				}))
			}
			st.PendingRemove = st.PendingRemove[1:]
		default:
			ci := group[choice]
			if err := m.backend.DeleteCartItem(ctx, ci.ID); err != nil {
				return "", err
			}
			parts = append(parts, response.Render(m.store.Pick("remove_from_cart", "Pizza"), map[string]string{
				"pizza_name": strings.ToLower(ci.Product.Name),
			}))
			st.PendingRemove = st.PendingRemove[1:]
		}

	case ConfirmModify:
		group := st.PendingModify[0]
		if choice >= len(group.Candidates) || choice < 0 {
			return m.store.Pick("choice_out_of_range"), nil
		}
		ci := group.Candidates[choice]
		if err := m.applyModification(ctx, st, ci.ID, group.Changes); err != nil {
			return "", err
		}
		parts = append(parts, response.Render(m.store.Pick("modify_cart_item", "Pizza"), map[string]string{
			"pizza_name": strings.ToLower(ci.Product.Name),
		}))
		st.PendingModify = st.PendingModify[1:]
	}

	if prompt := m.choicePrompt(st, kind); prompt != "" {
		parts = append(parts, prompt)
	}
	return strings.Join(parts, separator), nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
