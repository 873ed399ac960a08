// Package render turns a single flattened plan node into a narrated sentence.
package render

import "strings"

// Operator is the rendering category of a plan node.
type Operator int

const (
	// OperatorGeneric covers every non-scan node type.
	OperatorGeneric Operator = iota
	OperatorFunctionScan
	OperatorSeqScan
	OperatorBitmapHeapScan
	OperatorBitmapIndexScan
	// OperatorIndexScan is any other scan whose type mentions "Index".
	OperatorIndexScan
	// OperatorOtherScan is a scan without dedicated phrasing. It is narrated by
	// its filter clause alone, or like OperatorGeneric when it has no filter.
	OperatorOtherScan
)

var operatorNames = map[Operator]string{
	OperatorGeneric:         "generic",
	OperatorFunctionScan:    "function_scan",
	OperatorSeqScan:         "seq_scan",
	OperatorBitmapHeapScan:  "bitmap_heap_scan",
	OperatorBitmapIndexScan: "bitmap_index_scan",
	OperatorIndexScan:       "index_scan",
	OperatorOtherScan:       "other_scan",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "unknown"
}

// IsScan reports whether the operator gets scan phrasing.
func (o Operator) IsScan() bool {
	return o != OperatorGeneric
}

// Classify maps a node type to its operator category. Any type containing
// "Scan" is a scan. Matching is by substring, so e.g. "Custom Scan" and
// "Index Only Scan" are scans too.
func Classify(nodeType string) Operator {
	if !strings.Contains(nodeType, "Scan") {
		return OperatorGeneric
	}
	switch nodeType {
	case "Function Scan":
		return OperatorFunctionScan
	case "Seq Scan":
		return OperatorSeqScan
	case "Bitmap Heap Scan":
		return OperatorBitmapHeapScan
	case "Bitmap Index Scan":
		return OperatorBitmapIndexScan
	}
	if strings.Contains(nodeType, "Index") {
		return OperatorIndexScan
	}
	return OperatorOtherScan
}
