package table

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "coords.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	want := Table{row("ATR_L", 1), row("GCC", 2), row("BCC", 3)}
	id, err := s.SaveRun(ctx, "/atlas.nii.gz", want)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	got, err := s.LoadRun(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stored table mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreLatestRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrNoRuns)

	_, err = s.SaveRun(ctx, "a", Table{row("ATR_L", 1)})
	require.NoError(t, err)
	second, err := s.SaveRun(ctx, "b", Table{row("ATR_R", 2)})
	require.NoError(t, err)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, latest)
}

func TestStoreRejectsDuplicateROI(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveRun(context.Background(), "a", Table{row("GCC", 1), row("GCC", 2)})
	require.Error(t, err)

	_, err = s.LatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNoRuns, "failed run must be rolled back")
}

func TestStoreUnknownRun(t *testing.T) {
	got, err := openTestStore(t).LoadRun(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, got)
}
