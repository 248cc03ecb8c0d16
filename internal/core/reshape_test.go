package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReshape_Example(t *testing.T) {
	flat := FlatRecord{
		{Key: "name.firstName", Value: "Ann"},
		{Key: "name.lastName", Value: "Lee"},
		{Key: "age", Value: "30"},
		{Key: "address.city", Value: "Paris"},
	}

	got, err := Reshaper{}.Reshape(flat)
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", got.Name)
	assert.Equal(t, "30", got.Age)
	assert.Equal(t, Tree{"city": "Paris"}, got.Address)
	assert.NotNil(t, got.AdditionalInfo)
	assert.Empty(t, got.AdditionalInfo)
}

func TestReshape_Partition(t *testing.T) {
	flat := FlatRecord{
		{Key: "name.firstName", Value: "Rohit"},
		{Key: "name.lastName", Value: "Prasad"},
		{Key: "name.middle", Value: "K"},
		{Key: "age", Value: "35"},
		{Key: "address.line1", Value: "A-563 Rakshak Society"},
		{Key: "address.geo.lat", Value: "18.5"},
		{Key: "address.geo.lng", Value: "73.8"},
		{Key: "address", Value: "bare"},
		{Key: "gender", Value: "male"},
	}

	got, err := Reshaper{}.Reshape(flat)
	require.NoError(t, err)

	assert.Equal(t, "Rohit Prasad", got.Name)
	assert.Equal(t, "35", got.Age)
	assert.Equal(t, Tree{
		"line1": "A-563 Rakshak Society",
		"geo":   Tree{"lat": "18.5", "lng": "73.8"},
	}, got.Address)
	assert.Equal(t, map[string]string{
		"name.middle": "K",
		"address":     "bare",
		"gender":      "male",
	}, got.AdditionalInfo)

	// Every original key lands in exactly one group.
	for _, f := range flat {
		var hits int
		switch f.Key {
		case KeyFirstName, KeyLastName:
			if strings.Contains(got.Name, f.Value) {
				hits++
			}
		case KeyAge:
			if got.Age == f.Value {
				hits++
			}
		}
		if strings.HasPrefix(f.Key, AddressPrefix) {
			path := strings.Split(strings.TrimPrefix(f.Key, AddressPrefix), ".")
			if v, ok := got.Address.Leaf(path...); ok && v == f.Value {
				hits++
			}
		}
		if v, ok := got.AdditionalInfo[f.Key]; ok && v == f.Value {
			hits++
		}
		assert.Equal(t, 1, hits, "key %q", f.Key)
	}
}

func TestReshape_AddressDepth(t *testing.T) {
	tests := []struct {
		key   string
		depth int
	}{
		{"address.city", 1},
		{"address.geo.lat", 2},
		{"address.a.b.c.d", 4},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := Reshaper{}.Reshape(FlatRecord{{Key: tt.key, Value: "v"}})
			require.NoError(t, err)

			path := strings.Split(strings.TrimPrefix(tt.key, AddressPrefix), ".")
			assert.Equal(t, tt.depth, got.Address.Depth())
			leaf, ok := got.Address.Leaf(path...)
			require.True(t, ok)
			assert.Equal(t, "v", leaf)
		})
	}
}

func TestReshape_MissingParts(t *testing.T) {
	got, err := Reshaper{}.Reshape(FlatRecord{{Key: "name.firstName", Value: "Ann"}})
	require.NoError(t, err)

	assert.Equal(t, "Ann ", got.Name)
	assert.Equal(t, "", got.Age)
	assert.Equal(t, Tree{}, got.Address)
}

func TestReshape_AddressConflict(t *testing.T) {
	leafThenNested := FlatRecord{
		{Key: "address.geo", Value: "unknown"},
		{Key: "address.geo.lat", Value: "18.5"},
	}
	nestedThenLeaf := FlatRecord{
		{Key: "address.geo.lat", Value: "18.5"},
		{Key: "address.geo", Value: "unknown"},
	}

	t.Run("overwrite keeps the last write", func(t *testing.T) {
		got, err := Reshaper{Conflict: ConflictOverwrite}.Reshape(leafThenNested)
		require.NoError(t, err)
		assert.Equal(t, Tree{"geo": Tree{"lat": "18.5"}}, got.Address)

		got, err = Reshaper{Conflict: ConflictOverwrite}.Reshape(nestedThenLeaf)
		require.NoError(t, err)
		assert.Equal(t, Tree{"geo": "unknown"}, got.Address)
	})

	t.Run("fail rejects the record", func(t *testing.T) {
		for _, flat := range []FlatRecord{leafThenNested, nestedThenLeaf} {
			_, err := Reshaper{Conflict: ConflictFail}.Reshape(flat)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, flat[1].Key, pe.Column)
			assert.Contains(t, pe.Msg, `"geo"`)
		}
	})
}

func TestReshapeAll_RecordNumber(t *testing.T) {
	flats := []FlatRecord{
		{{Key: "address.geo", Value: "x"}},
		{{Key: "address.geo", Value: "x"}, {Key: "address.geo.lat", Value: "1"}},
	}

	_, err := Reshaper{Conflict: ConflictFail}.ReshapeAll(flats)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Record)
	assert.Contains(t, err.Error(), "record 2")

	nested, err := Reshaper{}.ReshapeAll(flats)
	require.NoError(t, err)
	assert.Len(t, nested, 2)
}

func TestTree_Set(t *testing.T) {
	tree := Tree{}
	require.NoError(t, tree.Set([]string{"a", "b"}, "1", ConflictFail))
	require.NoError(t, tree.Set([]string{"a", "c"}, "2", ConflictFail))
	require.NoError(t, tree.Set([]string{"a", "b"}, "3", ConflictFail), "leaf over leaf is not a conflict")

	assert.Equal(t, Tree{"a": Tree{"b": "3", "c": "2"}}, tree)

	err := tree.Set([]string{"a", "b", "x"}, "4", ConflictFail)
	assert.True(t, errors.Is(err, ErrPathConflict))

	assert.Error(t, tree.Set(nil, "v", ConflictOverwrite))
}

func TestTree_Map(t *testing.T) {
	tree := Tree{"geo": Tree{"lat": "1"}, "city": "Paris"}

	m := tree.Map()
	assert.Equal(t, map[string]any{"geo": map[string]any{"lat": "1"}, "city": "Paris"}, m)

	assert.NotNil(t, Tree(nil).Map())
}

func TestParseConflictPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ConflictPolicy
		wantErr bool
	}{
		{"", ConflictOverwrite, false},
		{"overwrite", ConflictOverwrite, false},
		{"FAIL", ConflictFail, false},
		{"merge", ConflictOverwrite, true},
	}

	for _, tt := range tests {
		got, err := ParseConflictPolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, strings.ToLower(strings.TrimSpace(tt.in)) == "fail", got.String() == "fail")
	}
}
