// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audcache"
	"github.com/ik5/audcache/formats/wav"
)

// execute runs the root command; commands share flag state so tests
// here do not run in parallel.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := GetRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	t.Cleanup(func() {
		cmd.SetArgs(nil)
		cfgFile = ""
		renderReverse, renderRealtime, renderFrames = false, false, 0
		for _, c := range cmd.Commands() {
			c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		}
	})

	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()

	path := filepath.Join(dir, "audcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	Version, Commit, Date = "1.2.3", "abc123", "2026-01-01"
	t.Cleanup(func() { Version, Commit, Date = "dev", "none", "unknown" })

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "audcache 1.2.3 (commit: abc123, built: 2026-01-01)\n", out)
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
logging:
  output: `+filepath.Join(dir, "audcache.log")+`
cache:
  pool_chunks: 16
  frames_per_chunk: 4096
metrics:
  enabled: true
`)

	out, err := execute(t, "config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "16 chunks x 4096 frames (512 KiB)")
	assert.Contains(t, out, "1,024 frames")
	assert.Contains(t, out, ":9090/metrics")
	assert.Contains(t, out, "reverse")
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `
logging:
  output: `+filepath.Join(dir, "audcache.log")+`
cache:
  pool_chunks: 8
  frames_per_chunk: 256
  hint_frames: 1024
`)

	in := filepath.Join(dir, "in.wav")
	f, err := os.Create(in)
	require.NoError(t, err)
	samples := make([]float32, 2*3000)
	for i := range samples {
		samples[i] = float32(i%64) / 128
	}
	require.NoError(t, wav.WriteWAV16(f, 16000, 2, samples))
	require.NoError(t, f.Close())

	outPath := filepath.Join(dir, "out.wav")
	out, err := execute(t, "render", "--config", cfgPath, "--reverse", "--buffer-frames", "500", in, outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "3,000 frames at 16000 Hz")
	assert.Contains(t, out, "callbacks: 6")

	src, err := audcache.Open(audcache.NewRegistry(), outPath)
	require.NoError(t, err)
	defer src.Close()
	require.Equal(t, int64(3000), src.MaxFrameIndex())

	orig, err := audcache.Open(audcache.NewRegistry(), in)
	require.NoError(t, err)
	defer orig.Close()

	got := make([]float32, 2*3000)
	want := make([]float32, 2*3000)
	require.Equal(t, 3000, src.ReadStereoFrames(3000, got))
	require.Equal(t, 3000, orig.ReadStereoFrames(3000, want))
	for k := range 3000 {
		j := 2999 - k
		// one extra 16-bit requantization
		require.InDelta(t, want[j*2], got[k*2], 1e-4, "frame %d", k)
		require.InDelta(t, want[j*2+1], got[k*2+1], 1e-4, "frame %d", k)
	}
}

func TestRenderCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "logging:\n  output: "+filepath.Join(dir, "audcache.log")+"\n")

	_, err := execute(t, "render", "--config", cfgPath, filepath.Join(dir, "missing.wav"), filepath.Join(dir, "out.wav"))
	require.Error(t, err)

	_, err = execute(t, "render", "only-one-arg")
	require.Error(t, err)
}
