package core

import "github.com/JonMunkholm/agedist/internal/storage"

// Field is one header/value pair of a CSV data line.
type Field struct {
	Key   string
	Value string
}

// FlatRecord holds the fields of one CSV data line in header order. Columns
// missing from a short line are absent rather than empty.
type FlatRecord []Field

// Get returns the value for key. When a header repeats, the last one wins.
func (r FlatRecord) Get(key string) (string, bool) {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i].Key == key {
			return r[i].Value, true
		}
	}
	return "", false
}

// Keys returns the record's keys in header order.
func (r FlatRecord) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Well-known flat keys.
const (
	KeyFirstName     = "name.firstName"
	KeyLastName      = "name.lastName"
	KeyAge           = "age"
	AddressPrefix    = "address."
	addressSeparator = "."
)

// NestedRecord is the unit persisted by the Loader.
type NestedRecord struct {
	Name           string            `json:"name"`
	Age            string            `json:"age"`
	Address        Tree              `json:"address"`
	AdditionalInfo map[string]string `json:"additionalInfo"`
}

// UserRow converts the record to its storage representation.
func (n NestedRecord) UserRow() storage.UserRow {
	return storage.UserRow{
		Name:           n.Name,
		Age:            n.Age,
		Address:        n.Address.Map(),
		AdditionalInfo: n.AdditionalInfo,
	}
}
