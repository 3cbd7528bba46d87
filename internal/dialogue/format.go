package dialogue

import (
	"fmt"
	"strconv"
	"strings"

	"pizzatalk/internal/gateway"
	"pizzatalk/internal/nlu"
	"pizzatalk/internal/segment"
)

const notProvided = "Chưa cung cấp"

// titleCase lowers the string and capitalizes the first letter of each
// word, mirroring how product names are shown to the user.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64) + " ₫"
}

// formatMenuItem renders the detail block for one product, pricing it
// with the configured store's stock record.
func formatMenuItem(p *gateway.Product, storeID int) string {
	var price float64
	var quantity int
	for _, si := range p.StockItems {
		if si.StoreID == storeID && si.ProductID == p.ID {
			price, quantity = si.SellingPrice, si.TotalQuantity
			break
		}
	}

	var crusts, toppings []string
	for _, od := range p.OptionDetails {
		switch od.OptionID {
		case gateway.OptionIDCrust:
			crusts = append(crusts, od.Name)
		case gateway.OptionIDTopping:
			toppings = append(toppings, od.Name)
		}
	}

	lines := []string{
		"Mô tả: " + p.Description,
		"Giá: " + formatPrice(price),
		"Số lượng còn lại: " + strconv.Itoa(quantity),
		"Các loại đế bánh: " + strings.Join(crusts, ", "),
		"Topping có thể thêm: " + strings.Join(toppings, ", "),
	}
	return strings.Join(lines, "\n")
}

// formatCartItem renders the detail block for one cart line.
func formatCartItem(ci gateway.CartItem) string {
	lines := []string{
		"Tên món: " + titleCase(ci.Product.Name),
		"Số lượng: " + strconv.Itoa(ci.Quantity),
		"Size: " + ci.Product.Size,
		"Đế bánh: " + strings.Join(ci.CrustNames(), ", "),
		"Topping: " + strings.Join(ci.ToppingNames(), ", "),
		"Tạm tính: " + formatPrice(ci.Price),
	}
	return strings.Join(lines, "\n")
}

// formatDraft renders an in-progress item, marking absent fields.
func formatDraft(d segment.Draft) string {
	name, quantity, size, crust, topping := notProvided, notProvided, notProvided, notProvided, notProvided
	if d.Pizza != "" {
		name = titleCase(d.Pizza)
	}
	if d.Quantity != 0 {
		quantity = strconv.Itoa(d.Quantity)
	}
	if d.Size != "" {
		size = strings.ToUpper(d.Size)
	}
	if d.Crust != "" {
		crust = d.Crust
	}
	if len(d.Toppings) > 0 {
		topping = strings.Join(d.Toppings, ", ")
	}

	lines := []string{
		"Tên món: " + name,
		"Số lượng: " + quantity,
		"Size: " + size,
		"Đế bánh: " + crust,
		"Topping: " + topping,
	}
	return strings.Join(lines, "\n")
}

// cartSummaryLine renders a one-line cart entry like
// "Món 1. 2 Pizza Hawaiian cỡ L đế dày với topping tôm".
func cartSummaryLine(n int, ci gateway.CartItem, withPrice bool) string {
	crust := strings.Join(ci.CrustNames(), ", ")
	topping := strings.Join(ci.ToppingNames(), ", ")

	var line string
	if topping != "" {
		line = fmt.Sprintf("Món %d. %d %s cỡ %s đế %s với topping %s",
			n, ci.Quantity, titleCase(ci.Product.Name), strings.ToUpper(ci.Product.Size), crust, topping)
	} else {
		line = fmt.Sprintf("Món %d. %d %s cỡ %s đế %s không topping",
			n, ci.Quantity, titleCase(ci.Product.Name), strings.ToUpper(ci.Product.Size), crust)
	}
	if withPrice {
		line += ". Tạm tính: " + formatPrice(ci.Price)
	}
	return line
}

// choiceLine is cartSummaryLine without the "Món" prefix, used in
// disambiguation lists.
func choiceLine(n int, ci gateway.CartItem) string {
	crust := strings.Join(ci.CrustNames(), ", ")
	topping := strings.Join(ci.ToppingNames(), ", ")
	if topping != "" {
		return fmt.Sprintf("%d. %d %s cỡ %s đế %s với topping %s",
			n, ci.Quantity, titleCase(ci.Product.Name), strings.ToUpper(ci.Product.Size), crust, topping)
	}
	return fmt.Sprintf("%d. %d %s cỡ %s đế %s không topping",
		n, ci.Quantity, titleCase(ci.Product.Name), strings.ToUpper(ci.Product.Size), crust)
}

// formatProfile renders the collected delivery details.
func formatProfile(profile map[nlu.EntityKind][]string) string {
	lines := []string{
		"Tên khách hàng: " + strings.Join(profile[nlu.KindCustomer], ", "),
		"Địa chỉ nhận hàng: " + strings.Join(profile[nlu.KindAddress], ", "),
		"Phương thức thanh toán: " + strings.Join(profile[nlu.KindPayment], ", "),
		"Số điện thoại: " + strings.Join(profile[nlu.KindPhone], ", "),
	}
	return strings.Join(lines, "\n")
}
