// Package plan decodes execution plan documents and restructures them into
// an indexed node table and a dependency-respecting visitation order.
package plan

import (
	"github.com/tidwall/gjson"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/models"
)

// planKey is the wrapper key PostgreSQL puts around the root node.
const planKey = "Plan"

// Decode parses a plan document. It accepts the PostgreSQL EXPLAIN (FORMAT JSON)
// output, a single {"Plan": ...} object, or a bare plan node. Attribute order is
// kept as it appears in the document.
func Decode(data []byte) (*models.Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.CodeDecode, "document is not valid JSON")
	}

	root, err := unwrap(gjson.ParseBytes(data))
	if err != nil {
		return nil, err
	}
	return decodeNode(root)
}

func unwrap(root gjson.Result) (gjson.Result, error) {
	if root.IsArray() {
		items := root.Array()
		if len(items) == 0 {
			return root, errors.New(errors.CodeDecode, "document is an empty array")
		}
		root = items[0]
	}
	if !root.IsObject() {
		return root, errors.Newf(errors.CodeDecode, "plan root must be an object, got %s", root.Type)
	}
	if inner := root.Get(planKey); inner.IsObject() && !root.Get(models.AttrNodeType).Exists() {
		return inner, nil
	}
	return root, nil
}

func decodeNode(node gjson.Result) (*models.Document, error) {
	doc := &models.Document{}
	var err error

	node.ForEach(func(key, value gjson.Result) bool {
		if key.Str != models.AttrPlans {
			doc.Attributes = doc.Attributes.Set(key.Str, toValue(value))
			return true
		}
		if value.Type == gjson.Null {
			return true
		}
		if !value.IsArray() {
			err = errors.Newf(errors.CodeDecode, "%q must be an array, got %s", models.AttrPlans, value.Type)
			return false
		}
		doc.Plans = doc.Plans[:0]
		for _, sub := range value.Array() {
			if !sub.IsObject() {
				err = errors.Newf(errors.CodeDecode, "sub-plan must be an object, got %s", sub.Type)
				return false
			}
			var child *models.Document
			child, err = decodeNode(sub)
			if err != nil {
				return false
			}
			doc.Plans = append(doc.Plans, child)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func toValue(r gjson.Result) models.Value {
	switch r.Type {
	case gjson.String:
		return models.StringValue(r.Str)
	case gjson.Number:
		return models.NumberValue(r.Raw)
	case gjson.True:
		return models.BoolValue(true)
	case gjson.False:
		return models.BoolValue(false)
	case gjson.JSON:
		if r.IsArray() {
			items := make([]models.Value, 0)
			for _, item := range r.Array() {
				items = append(items, toValue(item))
			}
			return models.ArrayValue(items...)
		}
		var fields models.Attributes
		r.ForEach(func(key, value gjson.Result) bool {
			fields = fields.Set(key.Str, toValue(value))
			return true
		})
		return models.ObjectValue(fields)
	default:
		return models.NullValue()
	}
}
