// Package catalog normalizes recognized entity values against the fixed
// product catalog. Pizza and topping names go through fuzzy matching,
// sizes and crusts through filler stripping plus exact membership, and
// quantities through Vietnamese number-word translation.
package catalog

import (
	"strconv"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"pizzatalk/internal/nlu"
)

// matchThreshold is the minimum fuzzy ratio for a pizza or topping name
// to be accepted as a catalog entry.
const matchThreshold = 50

// Pizzas is the fixed set of pizza names the store carries, in canonical
// lower-case form without the "pizza" prefix.
var Pizzas = []string{
	"margherita",
	"hawaiian",
	"tropicana seafood",
	"bbq beefy",
	"bbq chicken",
	"new oceania",
	"double cheese burger",
	"meat lovers",
	"seafood",
	"seafood deluxe",
	"pepperoni",
}

// Toppings is the fixed set of topping names, spelled the way the order
// backend stores its option details.
var Toppings = []string{
	"phômát",
	"thịt hun khói",
	"jăm bông",
	"gà",
	"xúc xích Đức",
	"xúc xích Mỹ",
	"dứa",
	"nấm rơm",
	"ôliu đen",
	"thịt bò xay",
	"cá",
	"tôm",
	"mực",
	"ngao",
	"ớt xanh",
	"hành tây",
	"cá thu",
	"cá cơm",
	"bắp",
	"ba chỉ bò nướng",
	"thanh Cua",
	"sò điệp",
}

// NoToppingSentinel marks an explicit "no topping" choice as opposed to
// a topping list that was never provided.
const NoToppingSentinel = "Không"

var sizeSet = map[string]struct{}{"s": {}, "l": {}, "xl": {}}

var crustSet = map[string]struct{}{"dày": {}, "mỏng": {}}

// pizzaFiller strips carrier words around a pizza name. Compound phrases
// are listed before their parts so a single pass removes them whole.
var pizzaFiller = strings.NewReplacer(
	"_", " ",
	"bánh pizza", "",
	"chiếc pizza", "",
	"cái pizza", "",
	"banh pizza", "",
	"chiec pizza", "",
	"cai pizza", "",
	"bánh", "",
	"cái", "",
	"chiếc", "",
	"banh", "",
	"cai", "",
	"chiec", "",
	"pizza", "",
)

// sizeFiller maps size descriptions to the catalog codes s/l/xl, with
// both diacritic and plain spellings handled.
var sizeFiller = strings.NewReplacer(
	"_", " ",
	"size", "",
	"kích cỡ", "",
	"kích thước", "",
	"độ lớn", "",
	"cỡ", "",
	"bé", "s",
	"nhỏ", "s",
	"vừa", "l",
	"bình thường", "l",
	"thường", "l",
	"trung bình", "l",
	"lớn", "xl",
	"bự", "xl",
	"to", "xl",
	"co", "",
	"be", "s",
	"nho", "s",
	"vua", "l",
	"thuong", "l",
	"lon", "xl",
	"bu", "xl",
)

var crustFiller = strings.NewReplacer(
	"_", " ",
	"đế bánh", "",
	"vỏ bánh", "",
	"đáy bánh", "",
	"loại bánh", "",
	"vỏ pizza", "",
	"đế pizza", "",
	"đáy pizza", "",
	"lớp vỏ", "",
	"viền bánh", "",
	"viền pizza", "",
	"nền bánh", "",
	"vỏ đế", "",
	"vành bánh", "",
	"đế", "",
	"de", "",
	"vỏ", "",
	"vo", "",
	"đáy", "",
	"day", "",
	"loại", "",
	"loai", "",
	"viền", "",
	"vien", "",
	"nền", "",
	"nen", "",
	"vành", "",
	"vanh", "",
)

// quantityWords translates Vietnamese number words to digit strings.
// Compounds come first so "mười một" becomes "11" rather than "101".
var quantityWords = strings.NewReplacer(
	"_", " ",
	"mười một", "11",
	"mười hai", "12",
	"mười ba", "13",
	"mười bốn", "14",
	"mười lăm", "15",
	"mười sáu", "16",
	"mười bảy", "17",
	"mười tám", "18",
	"mười chín", "19",
	"hai mươi", "20",
	"muoi mot", "11",
	"muoi hai", "12",
	"muoi ba", "13",
	"muoi bon", "14",
	"muoi lam", "15",
	"muoi sau", "16",
	"muoi bay", "17",
	"muoi tam", "18",
	"muoi chin", "19",
	"hai muoi", "20",
	"không", "0",
	"một", "1",
	"hai", "2",
	"ba", "3",
	"bốn", "4",
	"năm", "5",
	"sáu", "6",
	"bảy", "7",
	"tám", "8",
	"chín", "9",
	"mười", "10",
	"mot", "1",
	"bon", "4",
	"nam", "5",
	"sau", "6",
	"bay", "7",
	"tam", "8",
	"chin", "9",
	"muoi", "10",
)

// bestMatch returns the candidate with the highest fuzzy ratio against
// value. Among equal scores the first candidate wins.
func bestMatch(value string, candidates []string) (string, int) {
	best := ""
	bestScore := -1
	for _, c := range candidates {
		score := fuzzy.Ratio(value, c)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best, bestScore
}

// NormalizePizza cleans a recognized pizza span and fuzzy-matches it
// against the catalog. ok is false when no entry scores high enough.
func NormalizePizza(raw string) (string, bool) {
	cleaned := pizzaFiller.Replace(raw)
	match, score := bestMatch(cleaned, Pizzas)
	if score < matchThreshold {
		return strings.TrimSpace(cleaned), false
	}
	return match, true
}

// NormalizeSize reduces a size description to one of s, l, xl.
func NormalizeSize(raw string) (string, bool) {
	cleaned := strings.TrimSpace(sizeFiller.Replace(raw))
	_, ok := sizeSet[cleaned]
	return cleaned, ok
}

// NormalizeCrust reduces a crust description to dày or mỏng.
func NormalizeCrust(raw string) (string, bool) {
	cleaned := strings.TrimSpace(crustFiller.Replace(raw))
	_, ok := crustSet[cleaned]
	return cleaned, ok
}

// NormalizeTopping fuzzy-matches a topping span against the catalog.
func NormalizeTopping(raw string) (string, bool) {
	cleaned := strings.ReplaceAll(raw, "_", " ")
	match, score := bestMatch(cleaned, Toppings)
	if score < matchThreshold {
		return strings.TrimSpace(cleaned), false
	}
	return match, true
}

// NormalizeQuantity parses a quantity span, accepting plain digits and
// Vietnamese number words up to twenty.
func NormalizeQuantity(raw string) (int, bool) {
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		return n, true
	}
	translated := strings.TrimSpace(quantityWords.Replace(raw))
	n, err := strconv.Atoi(translated)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Normalize runs the normalizer for kind over values, splitting them
// into recognized catalog entries and unrecognized inputs. Quantities
// go through NormalizeQuantities instead.
func Normalize(kind nlu.EntityKind, values []string) (valid []string, invalid []string) {
	var fn func(string) (string, bool)
	switch kind {
	case nlu.KindPizza:
		fn = NormalizePizza
	case nlu.KindSize:
		fn = NormalizeSize
	case nlu.KindCrust:
		fn = NormalizeCrust
	case nlu.KindTopping:
		fn = NormalizeTopping
	default:
		return values, nil
	}

	for _, v := range values {
		if normalized, ok := fn(v); ok {
			valid = append(valid, normalized)
		} else {
			invalid = append(invalid, normalized)
		}
	}
	return valid, invalid
}

// NormalizeQuantities parses each quantity span, dropping the ones that
// cannot be read as a number.
func NormalizeQuantities(values []string) (valid []int, invalid []string) {
	for _, v := range values {
		if n, ok := NormalizeQuantity(v); ok {
			valid = append(valid, n)
		} else {
			invalid = append(invalid, v)
		}
	}
	return valid, invalid
}
