package narrative

import (
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/models"
	"github.com/TFMV/planscribe/pkg/plan"
	"github.com/TFMV/planscribe/pkg/render"
)

type options struct {
	workers int
}

// Option configures a narration.
type Option func(*options)

// WithWorkers renders nodes on up to n goroutines. n <= 1 renders inline.
// The output does not depend on n.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// Narrate decodes data and returns its narrative.
func Narrate(data []byte, opts ...Option) (string, error) {
	doc, err := plan.Decode(data)
	if err != nil {
		return "", err
	}
	return NarrateDocument(doc, opts...)
}

// NarrateDocument returns the narrative of an already decoded document.
func NarrateDocument(doc *models.Document, opts ...Option) (string, error) {
	n, err := Build(doc, opts...)
	if err != nil {
		return "", err
	}
	return n.Text, nil
}

// Build runs the whole pipeline and returns the narrative together with the
// node table, visitation order and per-node sentences.
func Build(doc *models.Document, opts ...Option) (*models.Narrative, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	table := plan.Flatten(doc)
	if table.Len() == 0 {
		return nil, errors.New(errors.CodeInvalidRequest, "plan document has no nodes")
	}

	sentences, err := RenderNodes(table, o.workers)
	if err != nil {
		return nil, err
	}

	seq := plan.Sequence(table.Children, plan.RootID)
	return &models.Narrative{
		Table:     table,
		Sequence:  seq,
		Sentences: sentences,
		Text:      Assemble(seq, table.Children, sentences),
	}, nil
}

// RenderNodes renders every node of table, indexed by node id. Nodes share
// no state, so workers > 1 renders them concurrently.
func RenderNodes(table *models.Table, workers int) ([]string, error) {
	sentences := make([]string, table.Len())

	if workers <= 1 {
		for _, node := range table.Nodes {
			s, err := render.Render(node.Attributes)
			if err != nil {
				return nil, nodeError(err, node.ID)
			}
			sentences[node.ID] = s
		}
		return sentences, nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, node := range table.Nodes {
		g.Go(func() error {
			s, err := render.Render(node.Attributes)
			if err != nil {
				return nodeError(err, node.ID)
			}
			sentences[node.ID] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sentences, nil
}

func nodeError(err error, id int) error {
	return errors.Wrapf(err, errors.GetCode(err), "failed to render node %d", id).
		WithDetail("node_id", id)
}
