package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tractcoords/internal/models"
)

func TestWriteCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Table{row("CST_L", 10)}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "roi,start_x,start_y,start_z,end_x,end_y,end_z,centroid_x,centroid_y,centroid_z", lines[0])
	assert.Equal(t, "CST_L,10,11,12,13,14,15,16,17,18", lines[1])
}

func TestCSVRoundTrip(t *testing.T) {
	want := Table{
		row("CST_L", 10),
		{
			ROI:      "BCC",
			Start:    models.Vec3{0, -17.333333333333332, 25.1},
			End:      models.Vec3{0, 35, 45},
			Centroid: models.Vec3{0, 1e-7, -72.5},
		},
	}
	path := filepath.Join(t.TempDir(), "nested", "jhu_coordinates.csv")

	require.NoError(t, SaveCSV(path, want))
	got, err := LoadCSV(path)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSV(t *testing.T) {
	t.Run("columns in any order", func(t *testing.T) {
		in := "start_x,roi,start_y,start_z,end_x,end_y,end_z,centroid_x,centroid_y,centroid_z\n" +
			"1,GCC,2,3,4,5,6,7,8,9\n"
		got, err := ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "GCC", got[0].ROI)
		assert.Equal(t, [9]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, got[0].Fields())
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("roi,start_x\nGCC,1\n"))
		assert.ErrorContains(t, err, "start_y")
	})

	t.Run("bad number", func(t *testing.T) {
		in := strings.Join(Columns, ",") + "\nGCC,x,2,3,4,5,6,7,8,9\n"
		_, err := ReadCSV(strings.NewReader(in))
		assert.ErrorContains(t, err, "start_x")
	})

	t.Run("header only", func(t *testing.T) {
		got, err := ReadCSV(strings.NewReader(strings.Join(Columns, ",") + "\n"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestResolveOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "out.csv"), ResolveOutputPath("data", "out.csv"))

	abs := filepath.Join(os.TempDir(), "out.csv")
	assert.Equal(t, abs, ResolveOutputPath("data", abs))
}

func TestIsStorePath(t *testing.T) {
	assert.True(t, IsStorePath("coords.db"))
	assert.True(t, IsStorePath("/tmp/coords.sqlite"))
	assert.False(t, IsStorePath("coords.csv"))
}
