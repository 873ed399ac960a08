package narrative

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/plan"
)

func TestNarrate_SingleSeqScan(t *testing.T) {
	out, err := Narrate([]byte(`{"Node Type": "Seq Scan", "Relation Name": "orders", "Alias": "o", "Plan Rows": 100}`))
	require.NoError(t, err)

	expected := Intro + "\n" +
		"step 1:\n" +
		" perform sequential scan on table orders as o\n there are 100 rows returned\n"
	assert.Equal(t, expected, out)
	assert.NotContains(t, out, "from the result of")
}

func TestNarrate_TwoChildJoin(t *testing.T) {
	doc := `{
		"Node Type": "Nested Loop",
		"Join Type": "Inner",
		"Plan Rows": 50,
		"Plans": [
			{"Node Type": "Seq Scan", "Relation Name": "a", "Alias": "a", "Plan Rows": 10},
			{"Node Type": "Seq Scan", "Relation Name": "b", "Alias": "b", "Plan Rows": 5}
		]
	}`

	out, err := Narrate([]byte(doc))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 1+3*3)
	assert.Equal(t, "step 1:", lines[1])
	assert.Equal(t, " perform sequential scan on table a as a", lines[2])
	assert.Equal(t, "step 2:", lines[4])
	assert.Equal(t, " perform sequential scan on table b as b", lines[5])
	assert.Equal(t, "step 3:", lines[7])
	assert.Equal(t, " from the result of step 1,2, perform nested loop operation with join type is inner, ", lines[8])
	assert.Equal(t, " there are 50 rows returned", lines[9])
}

func TestNarrate_Fixture(t *testing.T) {
	data, err := os.ReadFile("testdata/hash_join.json")
	require.NoError(t, err)

	out, err := Narrate(data)
	require.NoError(t, err)

	expected := Intro + "\n" +
		"step 1:\n" +
		" perform sequential scan on table orders as o with filter amount greater than or equal 100\n" +
		" there are 1200 rows returned\n" +
		"step 2:\n" +
		" perform index scan on table customers as c on index customers_pkey with condition id smaller than 500\n" +
		" there are 300 rows returned\n" +
		"step 3:\n" +
		" from the result of step 2, perform hash operation with parent relationship is inner,  parallel aware is false, \n" +
		" there are 300 rows returned\n" +
		"step 4:\n" +
		" from the result of step 1,3, perform hash join operation with parallel aware is false,  join type is inner,  inner unique is true,  hash cond is o.customer_id equal c.id, \n" +
		" there are 320 rows returned\n"
	assert.Equal(t, expected, out)
}

func TestBuild_Intermediates(t *testing.T) {
	data, err := os.ReadFile("testdata/hash_join.json")
	require.NoError(t, err)
	doc, err := plan.Decode(data)
	require.NoError(t, err)

	n, err := Build(doc)
	require.NoError(t, err)

	assert.Equal(t, 4, n.Table.Len())
	assert.Equal(t, []int{1, 3, 2, 0}, n.Sequence.Order)
	require.Len(t, n.Sentences, 4)

	for id := range n.Table.Nodes {
		for _, child := range n.Table.Children.Children(id) {
			assert.Less(t, n.Sequence.Steps[child], n.Sequence.Steps[id])
		}
	}
}

func TestNarrate_MissingRows(t *testing.T) {
	out, err := Narrate([]byte(`{"Node Type": "Result"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "there are unknown number of rows returned")
}

func TestNarrate_DecodeError(t *testing.T) {
	out, err := Narrate([]byte(`{"Node Type": "Seq Scan"`))
	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, errors.IsDecode(err))
}

func TestNarrate_MalformedNodeAborts(t *testing.T) {
	doc := `{"Node Type": "Append", "Plans": [{"Node Type": "Seq Scan"}, {"Plan Rows": 3}]}`

	for _, workers := range []int{1, 4} {
		out, err := Narrate([]byte(doc), WithWorkers(workers))
		require.Error(t, err)
		assert.Empty(t, out)
		assert.True(t, errors.IsMalformedNode(err))

		var planErr *errors.PlanError
		require.ErrorAs(t, err, &planErr)
		assert.Equal(t, 2, planErr.Details["node_id"])
	}
}

func TestBuild_EmptyDocument(t *testing.T) {
	n, err := Build(nil)
	require.Error(t, err)
	assert.Nil(t, n)
	assert.True(t, errors.IsInvalidRequest(err))
}

func TestNarrate_ParallelMatchesSequential(t *testing.T) {
	defer goleak.VerifyNone(t)

	data, err := os.ReadFile("testdata/hash_join.json")
	require.NoError(t, err)

	sequential, err := Narrate(data)
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 8} {
		parallel, err := Narrate(data, WithWorkers(workers))
		require.NoError(t, err)
		assert.Equal(t, sequential, parallel, "workers=%d", workers)
	}
}

func TestNarrate_WideTree(t *testing.T) {
	defer goleak.VerifyNone(t)

	var b strings.Builder
	b.WriteString(`{"Node Type": "Append", "Plans": [`)
	for i := 0; i < 200; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"Node Type": "Seq Scan", "Relation Name": "part", "Alias": "p", "Plan Rows": 1}`)
	}
	b.WriteString(`]}`)

	out, err := Narrate([]byte(b.String()), WithWorkers(16))
	require.NoError(t, err)
	assert.Contains(t, out, "step 201:\n from the result of step 1,2,3,")
	assert.Equal(t, 201, strings.Count(out, "\nstep "))
}
