package core

import (
	"errors"
	"strings"
)

// Reshaper turns flat records into nested records.
type Reshaper struct {
	// Conflict is applied when two address columns disagree on whether a
	// segment is a value or a nested level.
	Conflict ConflictPolicy
}

// Reshape partitions the record's keys into four disjoint groups:
//
//   - name.firstName and name.lastName compose Name as "first last"
//   - age is copied verbatim
//   - address.* keys build the Address tree, one level per dotted segment
//   - every other key, including other name.* keys, goes to AdditionalInfo
//
// Absent name parts and age are treated as empty strings. The only error is
// an address conflict under ConflictFail, reported as *ParseError.
func (r Reshaper) Reshape(flat FlatRecord) (NestedRecord, error) {
	var (
		firstName, lastName, age string
		addressFields            []Field
	)
	info := make(map[string]string)

	for _, f := range flat {
		switch {
		case f.Key == KeyFirstName:
			firstName = f.Value
		case f.Key == KeyLastName:
			lastName = f.Value
		case f.Key == KeyAge:
			age = f.Value
		case strings.HasPrefix(f.Key, AddressPrefix):
			addressFields = append(addressFields, f)
		default:
			info[f.Key] = f.Value
		}
	}

	address := Tree{}
	for _, f := range addressFields {
		path := strings.Split(strings.TrimPrefix(f.Key, AddressPrefix), addressSeparator)
		if err := address.Set(path, f.Value, r.Conflict); err != nil {
			if errors.Is(err, ErrPathConflict) {
				return NestedRecord{}, &ParseError{Column: f.Key, Msg: err.Error()}
			}
			return NestedRecord{}, err
		}
	}

	return NestedRecord{
		Name:           firstName + " " + lastName,
		Age:            age,
		Address:        address,
		AdditionalInfo: info,
	}, nil
}

// ReshapeAll reshapes every record, stopping at the first failure. A
// *ParseError is annotated with the 1-based record number.
func (r Reshaper) ReshapeAll(flats []FlatRecord) ([]NestedRecord, error) {
	nested := make([]NestedRecord, 0, len(flats))
	for i, flat := range flats {
		rec, err := r.Reshape(flat)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Record = i + 1
			}
			return nil, err
		}
		nested = append(nested, rec)
	}
	return nested, nil
}
