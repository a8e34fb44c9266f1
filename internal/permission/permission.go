// Package permission holds the fixed category/action catalog and the per-role
// matrix of boolean grants checked by the authorization gate.
package permission

import "sort"

const (
	Warehouse   = "warehouse"
	Role        = "role"
	User        = "user"
	Product     = "product"
	CheckIn     = "checkIn"
	CheckOut    = "checkOut"
	ActivityLog = "activityLog"
)

const (
	List     = "list"
	Create   = "create"
	Edit     = "edit"
	Delete   = "delete"
	Checkin  = "checkin"
	Checkout = "checkout"
	Assign   = "assign"
)

// CategorySpec names a category and its valid actions.
type CategorySpec struct {
	Name    string   `json:"name"`
	Actions []string `json:"actions"`
}

var crud = []string{List, Create, Edit, Delete}

var catalog = []CategorySpec{
	{Name: Warehouse, Actions: crud},
	{Name: Role, Actions: crud},
	{Name: User, Actions: crud},
	{Name: Product, Actions: crud},
	{Name: CheckIn, Actions: []string{Checkin}},
	{Name: CheckOut, Actions: []string{Checkout}},
	{Name: ActivityLog, Actions: []string{Assign}},
}

// Catalog returns a copy of the category/action set in display order.
func Catalog() []CategorySpec {
	out := make([]CategorySpec, len(catalog))
	for i, c := range catalog {
		out[i] = CategorySpec{Name: c.Name, Actions: append([]string(nil), c.Actions...)}
	}
	return out
}

// Valid reports whether the pair exists in the catalog.
func Valid(category, action string) bool {
	for _, c := range catalog {
		if c.Name != category {
			continue
		}
		for _, a := range c.Actions {
			if a == action {
				return true
			}
		}
	}
	return false
}

// Matrix maps category -> action -> granted.
type Matrix map[string]map[string]bool

// All returns a complete matrix with every action set to enabled.
func All(enabled bool) Matrix {
	m := make(Matrix, len(catalog))
	for _, c := range catalog {
		actions := make(map[string]bool, len(c.Actions))
		for _, a := range c.Actions {
			actions[a] = enabled
		}
		m[c.Name] = actions
	}
	return m
}

// Sanitize builds a complete matrix from untrusted input. Only a literal boolean
// true grants an action; unknown categories and actions are dropped.
func Sanitize(raw map[string]any) Matrix {
	m := All(false)
	for _, c := range catalog {
		actions, ok := raw[c.Name].(map[string]any)
		if !ok {
			continue
		}
		for _, a := range c.Actions {
			if v, ok := actions[a].(bool); ok && v {
				m[c.Name][a] = true
			}
		}
	}
	return m
}

// Normalize completes a typed matrix, dropping unknown keys and filling gaps with false.
func Normalize(in Matrix) Matrix {
	m := All(false)
	for _, c := range catalog {
		for _, a := range c.Actions {
			if in[c.Name][a] {
				m[c.Name][a] = true
			}
		}
	}
	return m
}

// Allows reports whether the matrix explicitly grants the action. A nil matrix,
// an unknown category or an unknown action all deny.
func (m Matrix) Allows(category, action string) bool {
	if m == nil || !Valid(category, action) {
		return false
	}
	return m[category][action]
}

// Granted lists the granted pairs as "category.action", sorted.
func (m Matrix) Granted() []string {
	out := []string{}
	for _, c := range catalog {
		for _, a := range c.Actions {
			if m.Allows(c.Name, a) {
				out = append(out, c.Name+"."+a)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Equal compares two matrices over the catalog.
func (m Matrix) Equal(other Matrix) bool {
	for _, c := range catalog {
		for _, a := range c.Actions {
			if m.Allows(c.Name, a) != other.Allows(c.Name, a) {
				return false
			}
		}
	}
	return true
}
