package render

import (
	"fmt"
	"strings"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/models"
)

// UnknownRows stands in for a missing row estimate.
const UnknownRows = "unknown number of"

// Render narrates one node from its own attributes. It fails only when the
// node has no operator type.
func Render(attrs models.Attributes) (string, error) {
	nodeType, ok := attrs.Get(models.AttrNodeType)
	if !ok || nodeType.Kind == models.KindNull {
		return "", errors.Newf(errors.CodeMalformedNode, "plan node has no %q attribute", models.AttrNodeType)
	}

	typ := nodeType.String()
	rest := attrs.Without(models.AttrNodeType)

	text := scanPhrase(Classify(typ), typ, rest)
	if text == "" {
		text = genericPhrase(typ, rest)
	}
	text += rowClause(rest)

	return PostProcess(text), nil
}

func scanPhrase(op Operator, typ string, attrs models.Attributes) string {
	var text string
	switch op {
	case OperatorFunctionScan:
		text = fmt.Sprintf("perform Function Scan on function %s", attrs.Text(models.AttrFunctionName))
	case OperatorSeqScan:
		text = fmt.Sprintf("perform Sequential Scan on table %s as %s",
			attrs.Text(models.AttrRelationName), attrs.Text(models.AttrAlias))
	case OperatorBitmapHeapScan:
		text = fmt.Sprintf("perform Bitmap Heap Scan on table %s as %s with recheck condition %s",
			attrs.Text(models.AttrRelationName), attrs.Text(models.AttrAlias), attrs.Text(models.AttrRecheckCond))
	case OperatorBitmapIndexScan:
		text = fmt.Sprintf("perform Bitmap Index Scan on index %s with condition %s",
			attrs.Text(models.AttrIndexName), attrs.Text(models.AttrIndexCond))
	case OperatorIndexScan:
		text = fmt.Sprintf("perform %s on table %s as %s on index %s with condition %s",
			typ, attrs.Text(models.AttrRelationName), attrs.Text(models.AttrAlias),
			attrs.Text(models.AttrIndexName), attrs.Text(models.AttrIndexCond))
	case OperatorOtherScan:
		// No phrasing of its own; only a filter clause
	default:
		return ""
	}

	if filter, ok := attrs.Get(models.AttrFilter); ok && !filter.IsEmpty() {
		text += " with filter " + filter.String()
	}
	return text
}

func genericPhrase(typ string, attrs models.Attributes) string {
	var b strings.Builder
	fmt.Fprintf(&b, "perform %s operation with", typ)
	for _, attr := range attrs {
		if !narrated(attr.Name) {
			continue
		}
		fmt.Fprintf(&b, " %s is %s, ", attr.Name, attr.Value.String())
	}
	return b.String()
}

// narrated reports whether the generic phrase lists the attribute. Costs and
// width are never narrated; rows get their own clause.
func narrated(name string) bool {
	if strings.Contains(name, "Cost") {
		return false
	}
	return name != models.AttrPlanRows && name != models.AttrPlanWidth
}

func rowClause(attrs models.Attributes) string {
	rows := UnknownRows
	if v, ok := attrs.Get(models.AttrPlanRows); ok {
		rows = v.String()
	}
	return fmt.Sprintf("\n there are %s rows returned", rows)
}
