package response

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzatalk/internal/common/logger"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("", 1, logger.NewTestLogger(t))
	require.NoError(t, err)
	return s
}

func TestEmbeddedRegistryLoads(t *testing.T) {
	s := newSeededStore(t)

	// Every key the dialogue manager reaches for must resolve.
	paths := [][]string{
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
		{"backend_error", "load_product"},
		{"backend_error", "default"},
	}
	for _, p := range paths {
		assert.True(t, s.Has(p...), "missing template path %v", p)
	}
}

func TestPickReturnsVariant(t *testing.T) {
	s := newSeededStore(t)

	variants, err := s.Lookup("yes_no_loop")
	require.NoError(t, err)
	assert.Contains(t, variants, s.Pick("yes_no_loop"))
}

func TestPickUnknownPath(t *testing.T) {
	s, err := NewStore("", 1, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Empty(t, s.Pick("no_such_key", "nested"))
}

func TestRender(t *testing.T) {
	got := Render("Món {id} còn thiếu {missing_entity}.", map[string]string{
		"id":             "2",
		"missing_entity": "size bánh",
	})
	assert.Equal(t, "Món 2 còn thiếu size bánh.", got)

	assert.Equal(t, "không có chỗ trống", Render("không có chỗ trống", nil))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"unknown": ["xin chào"]}`), 0o644))

	s, err := NewStore(path, 1, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "xin chào", s.Pick("unknown"))
}

func TestInvalidRegistryRejected(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"leaf not array", `{"unknown": "xin chào"}`},
		{"empty variant list", `{"unknown": []}`},
		{"non string variant", `{"unknown": [42]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateRegistry([]byte(tt.data)))
		})
	}
}
