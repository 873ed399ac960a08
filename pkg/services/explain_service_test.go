package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/models"
)

func newTestExplainService(repo *mockExplainRepository) ExplainService {
	m := newMockMetricsCollector()
	narration := NewNarrationService(NarrationOptions{}, &mockLogger{}, m)
	return NewExplainService(repo, narration, &mockLogger{}, m)
}

func TestExplainService_Explain(t *testing.T) {
	repo := &mockExplainRepository{}
	doc := &models.Document{Attributes: models.Attributes{
		{Name: models.AttrNodeType, Value: models.StringValue("Seq Scan")},
		{Name: models.AttrRelationName, Value: models.StringValue("orders")},
		{Name: models.AttrAlias, Value: models.StringValue("o")},
		{Name: models.AttrPlanRows, Value: models.NumberValue("100")},
	}}
	repo.On("Explain", mock.Anything, "SELECT * FROM orders").Return(&models.ExplainResult{
		Backend:   "duckdb",
		Query:     "SELECT * FROM orders",
		Document:  doc,
		NodeCount: 1,
	}, nil)

	out, err := newTestExplainService(repo).Explain(context.Background(), "SELECT * FROM orders")
	require.NoError(t, err)
	assert.Equal(t, "duckdb", out.Explain.Backend)
	assert.Equal(t, seqScanNarrative, out.Narration.Narrative)
	repo.AssertExpectations(t)
}

func TestExplainService_RejectsNonQueries(t *testing.T) {
	repo := &mockExplainRepository{}

	for _, stmt := range []string{"CREATE TABLE t (id INT)", "PRAGMA version", ""} {
		_, err := newTestExplainService(repo).Explain(context.Background(), stmt)
		require.Error(t, err, stmt)
		assert.True(t, errors.IsInvalidRequest(err), stmt)
	}
	repo.AssertNotCalled(t, "Explain", mock.Anything, mock.Anything)
}

func TestExplainService_RepositoryError(t *testing.T) {
	repo := &mockExplainRepository{}
	repo.On("Explain", mock.Anything, "SELECT 1").Return(nil, errors.New(errors.CodeSourceFailed, "boom"))

	_, err := newTestExplainService(repo).Explain(context.Background(), "SELECT 1")
	assert.Equal(t, errors.CodeSourceFailed, errors.GetCode(err))
}

func TestExplainService_Setup(t *testing.T) {
	repo := &mockExplainRepository{}
	repo.On("Exec", mock.Anything, "CREATE TABLE a (id INT)").Return(nil)
	repo.On("Exec", mock.Anything, "CREATE TABLE b (id INT)").Return(errors.New(errors.CodeSourceFailed, "exists"))

	svc := newTestExplainService(repo)
	err := svc.Setup(context.Background(), []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)", "CREATE TABLE c (id INT)"})
	require.Error(t, err)
	repo.AssertNumberOfCalls(t, "Exec", 2)
}
