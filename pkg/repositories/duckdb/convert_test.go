package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/models"
	"github.com/TFMV/planscribe/pkg/narrative"
)

const duckdbPlan = `[
  {
    "name": "PROJECTION",
    "children": [
      {
        "name": "HASH_JOIN",
        "children": [
          {
            "name": "TABLE_SCAN",
            "children": [],
            "extra_info": {
              "Table": "orders",
              "Type": "Sequential Scan",
              "Projections": ["customer_id", "amount"],
              "Filters": "amount>=100",
              "Estimated Cardinality": "~240"
            }
          },
          {
            "name": "TABLE_SCAN",
            "children": [],
            "extra_info": {
              "Table": "customers",
              "Type": "Sequential Scan",
              "Estimated Cardinality": "50"
            }
          }
        ],
        "extra_info": {
          "Join Type": "INNER",
          "Conditions": "customer_id = id",
          "Estimated Cardinality": "240"
        }
      }
    ],
    "extra_info": {
      "Projections": "amount",
      "Estimated Cardinality": "240"
    }
  }
]`

func TestConvertPlan(t *testing.T) {
	doc, err := ConvertPlan([]byte(duckdbPlan))
	require.NoError(t, err)

	assert.Equal(t, "Projection", doc.Attributes.Text(models.AttrNodeType))
	assert.Equal(t, "240", doc.Attributes.Text(models.AttrPlanRows))
	require.Len(t, doc.Plans, 1)

	join := doc.Plans[0]
	assert.Equal(t, "Hash Join", join.Attributes.Text(models.AttrNodeType))
	assert.Equal(t, "INNER", join.Attributes.Text("Join Type"))
	require.Len(t, join.Plans, 2)

	scan := join.Plans[0]
	assert.Equal(t, "Seq Scan", scan.Attributes.Text(models.AttrNodeType))
	assert.Equal(t, "orders", scan.Attributes.Text(models.AttrRelationName))
	assert.Equal(t, "orders", scan.Attributes.Text(models.AttrAlias))
	assert.Equal(t, "amount>=100", scan.Attributes.Text(models.AttrFilter))

	rows, ok := scan.Attributes.Get(models.AttrPlanRows)
	require.True(t, ok)
	assert.Equal(t, models.KindNumber, rows.Kind)
	assert.Equal(t, "240", rows.Str)

	projections, _ := scan.Attributes.Get("Projections")
	assert.Equal(t, models.KindArray, projections.Kind)
}

func TestConvertPlan_Narrates(t *testing.T) {
	doc, err := ConvertPlan([]byte(duckdbPlan))
	require.NoError(t, err)

	out, err := narrative.NarrateDocument(doc)
	require.NoError(t, err)

	assert.Contains(t, out, "step 1:\n perform sequential scan on table orders as orders with filter amountgreater than or equal100")
	assert.Contains(t, out, "step 3:\n from the result of step 1,2, perform hash join operation with")
	assert.Contains(t, out, "step 4:\n from the result of step 3, perform projection operation with")
}

func TestConvertPlan_LegacyShape(t *testing.T) {
	doc, err := ConvertPlan([]byte(`{"name": "SEQ_SCAN ", "timing": 0.0, "cardinality": 12, "extra_info": "lineitem\n", "children": []}`))
	require.NoError(t, err)

	assert.Equal(t, "Seq Scan", doc.Attributes.Text(models.AttrNodeType))
	assert.Equal(t, "12", doc.Attributes.Text(models.AttrPlanRows))
	assert.Equal(t, "lineitem", doc.Attributes.Text("Extra Info"))
}

func TestConvertPlan_FilterList(t *testing.T) {
	doc, err := ConvertPlan([]byte(`{"name": "FILTER", "extra_info": {"Filters": ["a > 1", "b < 2"]}}`))
	require.NoError(t, err)

	assert.Equal(t, "Filter", doc.Attributes.Text(models.AttrNodeType))
	assert.Equal(t, "a > 1 AND b < 2", doc.Attributes.Text(models.AttrFilter))
}

func TestConvertPlan_Errors(t *testing.T) {
	for _, data := range []string{`not json`, `[]`, `"PROJECTION"`} {
		_, err := ConvertPlan([]byte(data))
		require.Error(t, err, data)
		assert.True(t, errors.IsDecode(err), data)
	}
}

func TestOperatorName(t *testing.T) {
	tests := map[string]string{
		"HASH_JOIN":             "Hash Join",
		"PERFECT_HASH_GROUP_BY": "Perfect Hash Group By",
		"TABLE_SCAN":            "Seq Scan",
		"INDEX_SCAN":            "Index Scan",
		"ORDER_BY":              "Order By",
		"PROJECTION":            "Projection",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, operatorName(in), in)
	}
}

func TestParseRows(t *testing.T) {
	assert.Equal(t, int64(240), parseRows("240"))
	assert.Equal(t, int64(12), parseRows("12.7"))
	assert.Equal(t, int64(0), parseRows("many"))
}
