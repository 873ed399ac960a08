// Package narrative assembles rendered plan nodes into a numbered,
// cross-referenced description of how a query will execute.
package narrative

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TFMV/planscribe/pkg/models"
)

// Intro is the first line of every narrative.
const Intro = "hello, suggested query execution plan for your query is as following"

// Assemble writes one step per node in visitation order. sentences is indexed
// by node id.
func Assemble(seq *models.Sequence, adj models.Adjacency, sentences []string) string {
	var b strings.Builder
	b.WriteString(Intro)
	b.WriteByte('\n')

	for i, id := range seq.Order {
		fmt.Fprintf(&b, "step %d:\n %s%s\n", i+1, DependencyClause(seq, adj, id), sentences[id])
	}
	return b.String()
}

// DependencyClause references the steps that produce id's inputs, or returns
// "" for a leaf.
func DependencyClause(seq *models.Sequence, adj models.Adjacency, id int) string {
	children := adj.Children(id)
	if len(children) == 0 {
		return ""
	}
	steps := make([]string, len(children))
	for i, child := range children {
		steps[i] = strconv.Itoa(seq.Steps[child])
	}
	return "from the result of step " + strings.Join(steps, ",") + ", "
}
