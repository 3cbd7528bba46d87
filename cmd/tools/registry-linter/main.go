// cmd/tools/registry-linter/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"pizzatalk/internal/response"
)

// requiredPaths are the template keys the dialogue manager picks from.
// A registry missing any of them will answer some turn with an empty
// string, so the linter treats absence as an error, not a warning.
var requiredPaths = [][]string{
	{"view_menu", "Pizza"},
	{"view_menu", "Pizza_Size"},
	{"view_menu", "unknown"},
	{"view_cart", "Pizza", "exist"},
	{"view_cart", "Pizza", "nonexist"},
	{"view_cart", "empty"},
	{"view_cart", "unknown"},
	{"add_to_cart", "all"},
	{"add_to_cart", "no"},
	{"add_to_cart", "missing_quantity"},
	{"add_to_cart", "missing_pizza"},
	{"add_to_cart", "missing_size"},
	{"add_to_cart", "missing_crust"},
	{"add_to_cart", "missing_topping"},
	{"add_to_cart", "missing_template"},
	{"remove_from_cart", "Pizza"},
	{"remove_from_cart", "nonexist"},
	{"remove_from_cart", "no"},
	{"remove_from_cart", "unknown"},
	{"modify_cart_item", "Pizza"},
	{"modify_cart_item", "nonexist"},
	{"modify_cart_item", "no"},
	{"modify_cart_item", "unknown"},
	{"confirm_order", "header"},
	{"confirm_order", "footer"},
	{"confirm_order", "yes"},
	{"confirm_order", "no"},
	{"track_order", "unknown"},
	{"cancel_order", "unknown"},
	{"provide_info", "missing_cus"},
	{"provide_info", "missing_address"},
	{"provide_info", "missing_phone"},
	{"provide_info", "missing_payment"},
	{"provide_info", "missing_template"},
	{"provide_info", "confirm_info", "header"},
	{"provide_info", "confirm_info", "footer"},
	{"yes_no_loop"},
	{"ask_for_info"},
	{"choice_out_of_range"},
	{"cannot_segment"},
	{"unknown"},
	{"invalid_pizza"},
	{"invalid_size"},
	{"invalid_crust"},
	{"invalid_topping"},
	{"backend_error", "default"},
}

func main() {
	path := flag.String("path", "internal/response/templates.json", "Path to the template registry file")
	listAll := flag.Bool("list", false, "List every leaf path in the registry")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		fmt.Printf("Error reading registry: %v\n", err)
		os.Exit(1)
	}

	if err := response.ValidateRegistry(data); err != nil {
		fmt.Printf("Registry schema validation failed: %v\n", err)
		os.Exit(1)
	}

	var root map[string]interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		fmt.Printf("Error parsing registry: %v\n", err)
		os.Exit(1)
	}

	leaves := collectLeaves(root, nil)

	if *listAll {
		sort.Strings(leaves)
		for _, l := range leaves {
			fmt.Println(l)
		}
	}

	missing := 0
	for _, p := range requiredPaths {
		key := strings.Join(p, ".")
		if !containsLeaf(leaves, key) {
			fmt.Printf("Missing required template path: %s\n", key)
			missing++
		}
	}

	if missing > 0 {
		fmt.Printf("Registry lint failed: %d required paths missing.\n", missing)
		os.Exit(1)
	}

	fmt.Printf("Registry lint passed. Found %d template paths.\n", len(leaves))
}

// collectLeaves walks the nested registry and returns every dotted path
// that resolves to a variant list.
func collectLeaves(node interface{}, prefix []string) []string {
	switch v := node.(type) {
	case map[string]interface{}:
		var out []string
		for key, child := range v {
			next := make([]string, len(prefix), len(prefix)+1)
			copy(next, prefix)
			out = append(out, collectLeaves(child, append(next, key))...)
		}
		return out
	case []interface{}:
		return []string{strings.Join(prefix, ".")}
	default:
		return nil
	}
}

func containsLeaf(leaves []string, key string) bool {
	for _, l := range leaves {
		if l == key {
			return true
		}
	}
	return false
}
