package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	rules := filepath.Join(dir, "rules.txt")
	out := filepath.Join(dir, "out", "user.css")

	require.NoError(t, os.WriteFile(page, []byte(`<html><body>
<div class="ad">1</div>
<div class="promo">2</div>
<div id="widget">3</div>
<div id="keep">4</div>
</body></html>`), 0644))
	require.NoError(t, os.WriteFile(rules, []byte(`! test rules
.ad
.promo { visibility:hidden }
.late $lazy
@@.allowed
example.com##.ignored
`), 0644))

	rootCmd.SetArgs([]string{
		"apply",
		"--rules", rules,
		"--page", page,
		"--hide-id", "widget,keep",
		"--exclude-id", "keep",
		"--output", out,
	})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	css := string(data)
	assert.Contains(t, css, ".ad\n{display:none!important;}")
	assert.Contains(t, css, ".promo\n{visibility:hidden;}")
	assert.Contains(t, css, ".late\n{display:none!important;}")
	assert.Contains(t, css, "[data-ubw-hide]\n{display:none!important;}")
	assert.NotContains(t, css, "ignored")
}
