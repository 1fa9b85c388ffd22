package cmd

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshots(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		wantSources []string
		wantCounts  []int
	}{
		{
			name:        "Document",
			input:       `{"source": "https://example.com", "snapshots": [{"tag": "H1", "styles": {}}]}`,
			wantSources: []string{"https://example.com"},
			wantCounts:  []int{1},
		},
		{
			name:        "DocumentList",
			input:       ` [{"source": "a", "snapshots": []}, {"source": "b", "snapshots": [{"tag": "P"}, {"tag": "P"}]}]`,
			wantSources: []string{"a", "b"},
			wantCounts:  []int{0, 2},
		},
		{
			name:        "BareSnapshots",
			input:       `[{"tag": "DIV", "id": "x", "styles": {"absoluteX": 1}}, {"tag": "SPAN"}]`,
			wantSources: []string{""},
			wantCounts:  []int{2},
		},
		{
			name:        "EmptyList",
			input:       `[]`,
			wantSources: []string{""},
			wantCounts:  []int{0},
		},
	}

	for _, tc := range testCases {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			docs, err := parseSnapshots([]byte(tt.input))
			require.NoError(t, err)

			var sources []string
			var counts []int
			for _, d := range docs {
				sources = append(sources, d.Source)
				counts = append(counts, len(d.Snapshots))
			}
			if diff := cmp.Diff(tt.wantSources, sources); diff != "" {
				t.Errorf("sources mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCounts, counts); diff != "" {
				t.Errorf("counts mismatch (-want +got):\n%s", diff)
			}
		})
	}

	for _, bad := range []string{"", "   ", `"text"`, `{"snapshots": 3}`, `[1, 2]`} {
		_, err := parseSnapshots([]byte(bad))
		assert.Error(t, err, "input %q", bad)
	}
}

func TestWriteSnapshotsRoundTrip(t *testing.T) {
	docs, err := parseSnapshots([]byte(`[{"source": "a", "snapshots": [{"tag": "H1", "id": "title", "styles": {"color": "red"}}]}, {"source": "b", "snapshots": []}]`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSnapshots(&buf, docs))
	again, err := parseSnapshots(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, "title", again[0].Snapshots[0].ID)
	assert.Equal(t, "red", again[0].Snapshots[0].Styles["color"])

	buf.Reset()
	require.NoError(t, writeSnapshots(&buf, docs[:1]))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("{")), "a single page is written as one document")
}
