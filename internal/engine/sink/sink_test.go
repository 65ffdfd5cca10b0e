package sink

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_harvest/internal/engine"
	"github.com/anatolykoptev/go_harvest/internal/engine/tabular"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Write(ctx context.Context, b Batch) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockSink) Close() error {
	return m.Called().Error(0)
}

func TestMulti_WriteContinuesPastFailure(t *testing.T) {
	ctx := context.Background()
	b := Batch{Name: "x", Table: tabular.Table{Schema: tabular.Schema{"id"}}}
	boom := errors.New("disk full")

	failing, ok := &mockSink{}, &mockSink{}
	failing.On("Write", ctx, b).Return(boom).Once()
	ok.On("Write", ctx, b).Return(nil).Once()

	err := Multi{failing, ok}.Write(ctx, b)
	assert.ErrorIs(t, err, boom)
	failing.AssertExpectations(t)
	ok.AssertExpectations(t)
}

func TestMulti_CloseClosesAll(t *testing.T) {
	a, b := &mockSink{}, &mockSink{}
	a.On("Close").Return(errors.New("a"))
	b.On("Close").Return(nil)

	assert.Error(t, Multi{a, b}.Close())
	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestOpen_CSVOnlyByDefault(t *testing.T) {
	engine.Init(engine.Config{OutputDir: t.TempDir()})
	m, err := Open(context.Background(), "run")
	require.NoError(t, err)
	defer m.Close()

	require.Len(t, m, 1)
	assert.IsType(t, &CSV{}, m[0])
	assert.Equal(t, filepath.Join(engine.Cfg.OutputDir, "run"), m[0].(*CSV).dir, "each run gets its own directory")
}

func TestOpen_WithSQLite(t *testing.T) {
	dir := t.TempDir()
	engine.Init(engine.Config{OutputDir: dir, SQLitePath: dir + "/h.db"})
	m, err := Open(context.Background(), "run")
	require.NoError(t, err)
	defer m.Close()

	require.Len(t, m, 2)
	assert.IsType(t, &SQLite{}, m[1])
}
