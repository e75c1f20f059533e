package detection

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avredact/geometry"
)

func TestJSONRoundTrip(t *testing.T) {
	table := Table{
		0: {
			New(geometry.NewBounds(10, 20, 30, 40), 0.5, KindFace),
			New(geometry.NewBounds(50, 60, 70, 80), 0.25, KindPlate),
		},
		12: {
			{Bounds: geometry.NewBounds(1, 2, 3, 4), Score: 0.75, Kind: KindPlate, Age: 3},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, table))

	parsed, err := ReadJSON(&buf)
	require.NoError(t, err)

	// the age is not persisted
	expected := table.Clone()
	expected[12][0].Age = 0
	if diff := cmp.Diff(expected, parsed); diff != "" {
		t.Fatalf("unexpected table (-want +got):\n%s", diff)
	}

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dets.json")
		require.NoError(t, SaveJSONFile(path, table))
		loaded, err := LoadJSONFile(path)
		require.NoError(t, err)
		require.Equal(t, expected, loaded)
	})
}

func TestReadJSONDefaults(t *testing.T) {
	table, err := ReadJSON(strings.NewReader(`{"3": [{"x_min": 5, "y_min": 6, "x_max": 1, "y_max": 2, "class": "face"}]}`))
	require.NoError(t, err)
	require.Len(t, table[3], 1)
	require.Equal(t, DefaultScore, table[3][0].Score)
	require.Equal(t, geometry.NewBounds(1, 2, 5, 6), table[3][0].Bounds)
	require.Equal(t, KindFace, table[3][0].Kind)
}

func TestReadJSONErrors(t *testing.T) {
	for name, input := range map[string]string{
		"bad-frame":   `{"x": []}`,
		"negative":    `{"-1": []}`,
		"bad-class":   `{"0": [{"x_min": 0, "y_min": 0, "x_max": 1, "y_max": 1, "class": "dog"}]}`,
		"no-class":    `{"0": [{"x_min": 0, "y_min": 0, "x_max": 1, "y_max": 1}]}`,
		"not-an-json": `[`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(input))
			require.Error(t, err)
		})
	}
}
