package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON_Scalars(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Value
	}{
		{"string", `"leak at valve 3"`, String("leak at valve 3")},
		{"int", `42`, Number(42)},
		{"float", `36.6`, Number(36.6)},
		{"bool", `true`, Bool(true)},
		{"null", `null`, Null{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromJSON([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromJSON_Nested(t *testing.T) {
	data := `{
		"sections": [
			{"id": "roof", "fields": {"condition": "good", "score": 4}},
			{"id": "hvac", "fields": {"condition": "poor", "score": 1.5}}
		],
		"photos": 3,
		"signed": false,
		"notes": null
	}`

	v, err := FromJSON([]byte(data))
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, Number(3), obj["photos"])
	assert.Equal(t, Bool(false), obj["signed"])
	assert.Equal(t, Null{}, obj["notes"])

	sections, ok := obj["sections"].(Array)
	require.True(t, ok)
	require.Len(t, sections, 2)

	roof := sections[0].(Object)
	assert.Equal(t, String("roof"), roof["id"])
	assert.Equal(t, Number(4), roof["fields"].(Object)["score"])
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte(`{broken`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`{"a":1} trailing`))
	assert.Error(t, err)
}

func TestObject_SortedKeys(t *testing.T) {
	obj := Object{"zebra": Number(1), "alpha": Number(2), "mango": Number(3)}
	assert.Equal(t, []string{"alpha", "mango", "zebra"}, obj.SortedKeys())
}

func TestObject_JSONRoundTrip(t *testing.T) {
	var obj Object
	err := obj.UnmarshalJSON([]byte(`{"b": 2, "a": "x"}`))
	require.NoError(t, err)

	out, err := obj.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":2}`, string(out))
}

func TestObject_UnmarshalJSON_NotObject(t *testing.T) {
	var obj Object
	err := obj.UnmarshalJSON([]byte(`[1,2,3]`))
	assert.Error(t, err)
}
