package models

// Document is a decoded plan document: one node's attributes plus its sub-plans.
// It only exists at the ingestion boundary, the pipeline works on Table.
type Document struct {
	Attributes Attributes
	Plans      []*Document
}

// Node is a flattened plan node.
type Node struct {
	ID         int        `json:"id" yaml:"id"`
	Attributes Attributes `json:"attributes" yaml:"attributes"`
}

// Adjacency maps a node id to its ordered child ids. Leaves are absent.
type Adjacency map[int][]int

// Children returns the child ids of id in recorded order.
func (a Adjacency) Children(id int) []int {
	return a[id]
}

// IsLeaf reports whether id has no recorded children.
func (a Adjacency) IsLeaf(id int) bool {
	return len(a[id]) == 0
}

// Table is the flattened form of a Document. Nodes[i].ID == i and node 0 is the root.
type Table struct {
	Nodes    []Node    `json:"nodes" yaml:"nodes"`
	Children Adjacency `json:"children" yaml:"children"`
}

// Len returns the number of nodes.
func (t *Table) Len() int {
	return len(t.Nodes)
}

// Sequence is a dependency-respecting visitation order.
type Sequence struct {
	// Order lists node ids so that every node follows all of its descendants.
	Order []int `json:"order" yaml:"order"`
	// Steps maps a node id to its 1-based position in Order.
	Steps map[int]int `json:"steps" yaml:"steps"`
}

// Narrative bundles the final text with the intermediates it was built from.
type Narrative struct {
	Table     *Table    `json:"table" yaml:"table"`
	Sequence  *Sequence `json:"sequence" yaml:"sequence"`
	Sentences []string  `json:"sentences" yaml:"sentences"`
	Text      string    `json:"text" yaml:"text"`
}
