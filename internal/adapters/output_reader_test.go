package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depresolve/internal/types"
)

func TestResolutionReportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := sampleReport()
	require.NoError(t, NewOutputFileAdapter(dir).WriteResolutionReport(want))

	got, err := NewOutputReaderAdapter().ReadResolutionReport(filepath.Join(dir, ReportFileName))
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestReadClasspath(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "lines", content: "a.jar\nb.jar\n", want: []string{"a.jar", "b.jar"}},
		{name: "blank lines and padding", content: "\n  a.jar \n\nb.jar", want: []string{"a.jar", "b.jar"}},
		{name: "empty", content: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ClasspathFileName(types.ScopeRuntime))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			got, err := NewOutputReaderAdapter().ReadClasspath(path)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("classpath mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutputReaderErrors(t *testing.T) {
	reader := NewOutputReaderAdapter()

	_, err := reader.ReadClasspath(filepath.Join(t.TempDir(), "classpath.compile"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	path := filepath.Join(t.TempDir(), ReportFileName)
	require.NoError(t, os.WriteFile(path, []byte("errors: {"), 0o644))
	_, err = reader.ReadResolutionReport(path)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
