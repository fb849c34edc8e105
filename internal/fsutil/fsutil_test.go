package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeJoin(t *testing.T) {
	root := t.TempDir()

	got, err := SafeJoin(root, "1", "images", "a.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "1", "images", "a.png"), got)

	got, err = SafeJoin(root, "1/../2/x.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2", "x.txt"), got)

	for _, bad := range []string{"..", "../etc/passwd", "1/../../outside"} {
		_, err := SafeJoin(root, bad)
		assert.ErrorIs(t, err, extractionModel.ErrSecurityViolation, bad)
	}
}

func TestExtractionDir(t *testing.T) {
	root := t.TempDir()
	_, err := ExtractionDir(root, "report_1700000000000")
	assert.NoError(t, err)

	for _, bad := range []string{"", "..", "a/b", `a\b`} {
		_, err := ExtractionDir(root, bad)
		assert.ErrorIs(t, err, extractionModel.ErrSecurityViolation, bad)
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Q3_report__final_", SanitizeName("Q3 report (final)"))
	assert.Equal(t, "ok-name_1", SanitizeName("ok-name_1"))
}
