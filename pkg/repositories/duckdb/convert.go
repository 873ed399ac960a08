package duckdb

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/models"
)

// DuckDB names for the operators that get dedicated phrasing downstream.
var operatorNames = map[string]string{
	"SEQ_SCAN":   "Seq Scan",
	"TABLE_SCAN": "Seq Scan",
	"INDEX_SCAN": "Index Scan",
}

// extra_info keys that map onto PostgreSQL attribute names.
var extraInfoNames = map[string]string{
	"Table":                 models.AttrRelationName,
	"Filters":               models.AttrFilter,
	"Estimated Cardinality": models.AttrPlanRows,
	"Index":                 models.AttrIndexName,
	"Function":              models.AttrFunctionName,
}

// ConvertPlan turns DuckDB's EXPLAIN (FORMAT JSON) output into a document
// with PostgreSQL attribute names, so it narrates like any other plan.
func ConvertPlan(data []byte) (*models.Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.CodeDecode, "duckdb plan is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	if root.IsArray() {
		items := root.Array()
		if len(items) == 0 {
			return nil, errors.New(errors.CodeDecode, "duckdb plan is empty")
		}
		root = items[0]
	}
	if !root.IsObject() {
		return nil, errors.Newf(errors.CodeDecode, "duckdb plan node must be an object, got %s", root.Type)
	}
	return convertNode(root), nil
}

func convertNode(node gjson.Result) *models.Document {
	doc := &models.Document{}

	if name := strings.TrimSpace(node.Get("name").String()); name != "" {
		doc.Attributes = doc.Attributes.Set(models.AttrNodeType, models.StringValue(operatorName(name)))
	}

	extra := node.Get("extra_info")
	switch {
	case extra.IsObject():
		extra.ForEach(func(key, value gjson.Result) bool {
			doc.Attributes = setExtraInfo(doc.Attributes, key.Str, value)
			return true
		})
	case extra.Type == gjson.String && strings.TrimSpace(extra.Str) != "":
		doc.Attributes = doc.Attributes.Set("Extra Info", models.StringValue(strings.TrimSpace(extra.Str)))
	}

	if card := node.Get("cardinality"); card.Exists() && !doc.Attributes.Has(models.AttrPlanRows) {
		doc.Attributes = doc.Attributes.Set(models.AttrPlanRows, rowEstimate(card))
	}
	if table, ok := doc.Attributes.Get(models.AttrRelationName); ok && !doc.Attributes.Has(models.AttrAlias) {
		doc.Attributes = doc.Attributes.Set(models.AttrAlias, table)
	}

	for _, child := range node.Get("children").Array() {
		if child.IsObject() {
			doc.Plans = append(doc.Plans, convertNode(child))
		}
	}
	return doc
}

func setExtraInfo(attrs models.Attributes, key string, value gjson.Result) models.Attributes {
	name, ok := extraInfoNames[key]
	if !ok {
		return attrs.Set(key, plainValue(value))
	}
	switch name {
	case models.AttrPlanRows:
		return attrs.Set(name, rowEstimate(value))
	case models.AttrFilter:
		return attrs.Set(name, models.StringValue(joinFilters(value)))
	default:
		return attrs.Set(name, models.StringValue(value.String()))
	}
}

// operatorName converts SNAKE_CASE operator names into title case.
func operatorName(name string) string {
	if mapped, ok := operatorNames[name]; ok {
		return mapped
	}
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// rowEstimate strips DuckDB's "~" approximation marker from a cardinality.
func rowEstimate(v gjson.Result) models.Value {
	if v.Type == gjson.Number {
		return models.NumberValue(v.Raw)
	}
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v.String()), "~"))
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return models.NumberValue(s)
	}
	return models.StringValue(s)
}

func joinFilters(v gjson.Result) string {
	if !v.IsArray() {
		return strings.TrimSpace(v.String())
	}
	parts := make([]string, 0)
	for _, f := range v.Array() {
		parts = append(parts, strings.TrimSpace(f.String()))
	}
	return strings.Join(parts, " AND ")
}

func plainValue(v gjson.Result) models.Value {
	switch {
	case v.IsArray():
		items := make([]models.Value, 0)
		for _, item := range v.Array() {
			items = append(items, plainValue(item))
		}
		return models.ArrayValue(items...)
	case v.Type == gjson.Number:
		return models.NumberValue(v.Raw)
	case v.Type == gjson.True || v.Type == gjson.False:
		return models.BoolValue(v.Bool())
	case v.Type == gjson.Null:
		return models.NullValue()
	default:
		return models.StringValue(strings.TrimSpace(v.String()))
	}
}

func parseRows(s string) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
