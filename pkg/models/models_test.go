package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"string", StringValue("orders"), "orders"},
		{"integer literal", NumberValue("100"), "100"},
		{"float literal", NumberValue("12.50"), "12.50"},
		{"true", BoolValue(true), "True"},
		{"false", BoolValue(false), "False"},
		{"null", NullValue(), "None"},
		{"string list", ArrayValue(StringValue("a"), StringValue("b")), "['a', 'b']"},
		{"mixed list", ArrayValue(NumberValue("1"), NullValue(), BoolValue(true)), "[1, None, True]"},
		{"quote in list", ArrayValue(StringValue("it's")), `["it's"]`},
		{
			name:     "object",
			value:    ObjectValue(Attributes{{Name: "k", Value: StringValue("v")}}),
			expected: "{'k': 'v'}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestValue_IsEmpty(t *testing.T) {
	assert.True(t, NullValue().IsEmpty())
	assert.True(t, StringValue("").IsEmpty())
	assert.True(t, ArrayValue().IsEmpty())
	assert.True(t, BoolValue(false).IsEmpty())
	assert.False(t, StringValue("x").IsEmpty())
	assert.False(t, NumberValue("0").IsEmpty())
}

func TestAttributes(t *testing.T) {
	attrs := Attributes{
		{Name: AttrNodeType, Value: StringValue("Seq Scan")},
		{Name: AttrPlanRows, Value: NumberValue("10")},
		{Name: AttrAlias, Value: StringValue("o")},
	}

	t.Run("Get", func(t *testing.T) {
		v, ok := attrs.Get(AttrPlanRows)
		require.True(t, ok)
		assert.Equal(t, "10", v.String())

		_, ok = attrs.Get(AttrFilter)
		assert.False(t, ok)
	})

	t.Run("Text", func(t *testing.T) {
		assert.Equal(t, "o", attrs.Text(AttrAlias))
		assert.Equal(t, "", attrs.Text(AttrIndexName))
	})

	t.Run("Without keeps order", func(t *testing.T) {
		out := attrs.Without(AttrPlanRows)
		assert.Equal(t, []string{AttrNodeType, AttrAlias}, out.Names())
		assert.Len(t, attrs, 3, "source must not be modified")
	})

	t.Run("Set", func(t *testing.T) {
		out := append(Attributes{}, attrs...).Set(AttrAlias, StringValue("x"))
		assert.Equal(t, "x", out.Text(AttrAlias))
		out = out.Set(AttrFilter, StringValue("a = 1"))
		assert.Equal(t, AttrFilter, out[len(out)-1].Name)
	})
}

func TestAttributes_MarshalJSON(t *testing.T) {
	attrs := Attributes{
		{Name: "b", Value: NumberValue("1.0")},
		{Name: "a", Value: ArrayValue(StringValue("x"), BoolValue(true))},
		{Name: "c", Value: NullValue()},
	}

	data, err := json.Marshal(attrs)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1.0,"a":["x",true],"c":null}`, string(data))
}

func TestAttributes_MarshalYAML(t *testing.T) {
	attrs := Attributes{
		{Name: "Node Type", Value: StringValue("Hash Join")},
		{Name: "Plan Rows", Value: NumberValue("42")},
	}

	data, err := yaml.Marshal(attrs)
	require.NoError(t, err)
	assert.Equal(t, "Node Type: Hash Join\nPlan Rows: 42\n", string(data))
}

func TestAdjacency(t *testing.T) {
	adj := Adjacency{0: {1, 2}}
	assert.Equal(t, []int{1, 2}, adj.Children(0))
	assert.True(t, adj.IsLeaf(1))
	assert.False(t, adj.IsLeaf(0))
}
