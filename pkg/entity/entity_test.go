package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name   string
		e      Entity
		field  string
		wantID string
		wantOK bool
	}{
		{"string id", Entity{"_id": "B1"}, "_id", "B1", true},
		{"custom field", Entity{"id": "A1"}, "id", "A1", true},
		{"missing", Entity{"title": "X"}, "_id", "", false},
		{"empty", Entity{"_id": ""}, "_id", "", false},
		{"numeric", Entity{"_id": 7.0}, "_id", "", false},
		{"nil entity", nil, "_id", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ID(tt.e, tt.field)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestCopy_IsDeep(t *testing.T) {
	orig := Entity{
		"_id":     "B1",
		"authors": []any{"A1", map[string]any{"_id": "A2", "name": "Y"}},
		"meta":    map[string]any{"pages": 176.0},
	}

	c := Copy(orig)
	require.Equal(t, orig, c)

	c["authors"].([]any)[0] = "changed"
	c["authors"].([]any)[1].(map[string]any)["name"] = "changed"
	c["meta"].(map[string]any)["pages"] = 1.0

	assert.Equal(t, "A1", orig["authors"].([]any)[0])
	assert.Equal(t, "Y", orig["authors"].([]any)[1].(map[string]any)["name"])
	assert.Equal(t, 176.0, orig["meta"].(map[string]any)["pages"])
}

func TestCopy_Nil(t *testing.T) {
	assert.Nil(t, Copy(nil))
	assert.Nil(t, CopyValue(nil))
}

func TestMerge_KeepsID(t *testing.T) {
	dst := Entity{"_id": "B1", "title": "old"}
	Merge(dst, Entity{"_id": "B9", "title": "new", "year": 1988.0}, "_id")

	assert.Equal(t, Entity{"_id": "B1", "title": "new", "year": 1988.0}, dst)
}

func TestWithout(t *testing.T) {
	e := Entity{"_id": "B1", "title": "X"}
	out := Without(e, "_id")

	assert.Equal(t, Entity{"title": "X"}, out)
	assert.Contains(t, e, "_id")
}

func TestRef(t *testing.T) {
	populated := map[string]any{"_id": "A1", "name": "Y"}

	id, obj, ok := Ref("A1", "_id")
	assert.True(t, ok)
	assert.Equal(t, "A1", id)
	assert.Nil(t, obj)

	id, obj, ok = Ref(populated, "_id")
	assert.True(t, ok)
	assert.Equal(t, "A1", id)
	assert.Equal(t, Entity(populated), obj)

	_, _, ok = Ref(map[string]any{"name": "no id"}, "_id")
	assert.False(t, ok)

	_, _, ok = Ref(42.0, "_id")
	assert.False(t, ok)

	_, _, ok = Ref("", "_id")
	assert.False(t, ok)
}
