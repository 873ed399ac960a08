package plan

import (
	"github.com/TFMV/planscribe/pkg/models"
)

// RootID is the id Flatten assigns to the document root.
const RootID = 0

// Sequence walks adj depth-first from root and emits ids in post-order, so
// every node comes after all of its descendants and root comes last.
// Siblings are visited in recorded order.
func Sequence(adj models.Adjacency, root int) *models.Sequence {
	seq := &models.Sequence{Steps: make(map[int]int)}

	var visit func(id int)
	visit = func(id int) {
		for _, child := range adj.Children(id) {
			visit(child)
		}
		seq.Order = append(seq.Order, id)
	}
	visit(root)

	for i, id := range seq.Order {
		seq.Steps[id] = i + 1
	}
	return seq
}
