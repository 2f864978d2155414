package picker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	serr "xpick/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProperties = `# generic autopicker
parameters = diameter, threshold,fast
diameter.label = Particle diameter
diameter.help = Diameter in pixels
diameter.value = 128
threshold.label = Threshold
threshold.value = 0.5
fast.value = --fast
autopickCommand = picker -i %(micrograph) -o %(micrographName).pos -d %(diameter) -t %(threshold) %(diameter) %(fast)
convertCommand = convert_coords --all
runDir = /tmp/run
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewFromProperties(t *testing.T) {
	path := writeFile(t, t.TempDir(), "autopick.properties", sampleProperties)

	c, err := New(path)
	require.NoError(t, err)

	params := c.Parameters()
	require.Len(t, params, 3)
	assert.Equal(t, Parameter{Name: "diameter", Label: "Particle diameter", Help: "Diameter in pixels", Value: "128"}, params[0])
	assert.Equal(t, "threshold", params[1].Name)
	assert.Equal(t, "", params[1].Help, "missing keys stay empty")
	assert.Equal(t, "--fast", params[2].Value)

	assert.Equal(t, "convert_coords --all", c.ConvertCommand())
	assert.Equal(t, "/tmp/run", c.RunDir())
	assert.Equal(t, path, c.Path())
	assert.False(t, c.NeedsTraining())
	assert.Equal(t, 0, c.TrainingParticlesMinimum())

	params[0].Value = "changed"
	assert.Equal(t, "128", c.Parameters()[0].Value, "Parameters returns a copy")
}

func TestNewFromYAML(t *testing.T) {
	doc := `
parameters: [diameter, threshold]
diameter:
  label: Particle diameter
  value: 64
threshold:
  value: 0.25
autopickCommand: "picker -d %(diameter) -t %(threshold) %(micrograph)"
`
	path := writeFile(t, t.TempDir(), "autopick.yaml", doc)

	c, err := New(path)
	require.NoError(t, err)
	params := c.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "64", params[0].Value)
	assert.Equal(t, "Particle diameter", params[0].Label)
	assert.Equal(t, "0.25", params[1].Value)
	assert.Equal(t, "picker -d 64 -t 0.25 /m/a.mrc", c.Expand(MicrographFromPath("/m/a.mrc")))
}

func TestNewErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := New(filepath.Join(dir, "missing.properties"))
	require.Error(t, err)
	assert.True(t, serr.IsConfigError(err))
	assert.Equal(t, serr.ConfigNotFound, serr.KindOf(err))

	noParams := writeFile(t, dir, "noparams.properties", "autopickCommand=picker\n")
	_, err = New(noParams)
	require.Error(t, err)
	assert.True(t, serr.IsInvalidConfig(err))
	assert.Contains(t, err.Error(), "parameters")

	badYAML := writeFile(t, dir, "bad.yaml", "parameters: [a, b\n")
	_, err = New(badYAML)
	require.Error(t, err)
	assert.True(t, serr.IsInvalidConfig(err))
}

func TestEmptyParameterList(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.properties", "parameters=\nautopickCommand=picker %(micrograph)\n")
	c, err := New(path)
	require.NoError(t, err)
	assert.Empty(t, c.Parameters())
	assert.Equal(t, "picker /x.mrc", c.Expand(Micrograph{Path: "/x.mrc", Name: "x"}))
}

func TestExpand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "autopick.properties", sampleProperties)
	c, err := New(path)
	require.NoError(t, err)

	mic := MicrographFromPath("/data/Falcon_012.mrc")
	assert.Equal(t, "Falcon_012", mic.Name)

	got := c.Expand(mic)
	assert.Equal(t, "picker -i /data/Falcon_012.mrc -o Falcon_012.pos -d 128 -t 0.5 128 --fast", got)
	for _, p := range c.Parameters() {
		assert.NotContains(t, got, Placeholder(p.Name))
	}
	assert.Equal(t, "picker -i %(micrograph) -o %(micrographName).pos -d %(diameter) -t %(threshold) %(diameter) %(fast)", c.AutopickCommand(), "template is unchanged")
}

func TestExpandLeavesUnknownTokens(t *testing.T) {
	props := "parameters=a\na.value=1\nautopickCommand=run %(a) %(b) %(a)\n"
	c, err := New(writeFile(t, t.TempDir(), "c.properties", props))
	require.NoError(t, err)
	assert.Equal(t, "run 1 %(b) 1", c.Expand(MicrographFromPath("m.mrc")))
}

func TestExpandIsLiteral(t *testing.T) {
	// Values carrying regexp or replacement syntax are inserted as written
	props := "parameters=pat\npat.value='$1.*[x]'\nautopickCommand=grep %(pat)\n"
	c, err := New(writeFile(t, t.TempDir(), "c.properties", props))
	require.NoError(t, err)
	assert.Equal(t, "grep '$1.*[x]'", c.Expand(MicrographFromPath("m.mrc")))
}

func TestPropertiesKeepShellSyntax(t *testing.T) {
	t.Setenv("HOME", "/home/someone")
	props := `# shell commands pass through untouched
parameters=cols,q,home
cols.value=awk '{print $1}'
q.value="quoted"
home.value=${HOME}/picks
autopickCommand=run %(cols) %(q) $HOME # note
convertCommand=awk '{print $2}' out.pos
`
	c, err := New(writeFile(t, t.TempDir(), "c.properties", props))
	require.NoError(t, err)

	params := c.Parameters()
	require.Len(t, params, 3)
	assert.Equal(t, "awk '{print $1}'", params[0].Value)
	assert.Equal(t, `"quoted"`, params[1].Value)
	assert.Equal(t, "${HOME}/picks", params[2].Value)
	assert.Equal(t, "run %(cols) %(q) $HOME # note", c.AutopickCommand())
	assert.Equal(t, "awk '{print $2}' out.pos", c.ConvertCommand())
	assert.Equal(t, `run awk '{print $1}' "quoted" $HOME # note`, c.Expand(MicrographFromPath("m.mrc")))
}

func TestUnresolved(t *testing.T) {
	path := writeFile(t, t.TempDir(), "autopick.properties", sampleProperties)
	c, err := New(path)
	require.NoError(t, err)

	assert.Empty(t, c.Unresolved(c.AutopickCommand()))

	got := c.Unresolved("picker %(treshold) %(micrographNme) %(zzz) %(treshold)")
	require.Len(t, got, 3)
	assert.Equal(t, UnresolvedToken{Token: "treshold", Suggestion: "threshold"}, got[0])
	assert.Equal(t, UnresolvedToken{Token: "micrographNme", Suggestion: "micrographName"}, got[1])
	assert.Equal(t, "zzz", got[2].Token)
	assert.Empty(t, got[2].Suggestion)
}

func TestMicrographFromPath(t *testing.T) {
	assert.Equal(t, Micrograph{Path: "a/b/c.tar.gz", Name: "c.tar"}, MicrographFromPath("a/b/c.tar.gz"))
	assert.Equal(t, "noext", MicrographFromPath("/x/noext").Name)
	assert.True(t, strings.HasPrefix(Placeholder("x"), "%("))
}

func TestSetParameter(t *testing.T) {
	path := writeFile(t, t.TempDir(), "autopick.properties", sampleProperties)
	c, err := New(path)
	require.NoError(t, err)

	require.NoError(t, c.SetParameter("threshold", "0.8"))
	assert.Equal(t, "0.8", c.Parameters()[1].Value)
	assert.Contains(t, c.Expand(MicrographFromPath("/m.mrc")), "-t 0.8")

	err = c.SetParameter("nope", "1")
	require.Error(t, err)
	assert.True(t, serr.IsInvalidConfig(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "threshold.value = 0.5", "the file is not rewritten")
}
