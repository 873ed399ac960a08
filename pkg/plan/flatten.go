package plan

import (
	"github.com/TFMV/planscribe/pkg/models"
)

// noParent tags the root in the flatten queue.
const noParent = -1

type pendingNode struct {
	doc    *models.Document
	parent int
}

// Flatten assigns ids to every node of doc in breadth-first order and records
// parent to child links in an adjacency map. The root gets id 0 and child order
// follows each node's sub-plan list. A nil document yields an empty table.
func Flatten(doc *models.Document) *models.Table {
	table := &models.Table{Children: make(models.Adjacency)}
	if doc == nil {
		return table
	}

	queue := []pendingNode{{doc: doc, parent: noParent}}
	for head := 0; head < len(queue); head++ {
		item := queue[head]
		id := len(table.Nodes)

		if item.parent != noParent {
			table.Children[item.parent] = append(table.Children[item.parent], id)
		}
		for _, sub := range item.doc.Plans {
			queue = append(queue, pendingNode{doc: sub, parent: id})
		}

		table.Nodes = append(table.Nodes, models.Node{
			ID:         id,
			Attributes: item.doc.Attributes.Without(models.AttrPlans, models.AttrParentNodeID),
		})
	}
	return table
}
