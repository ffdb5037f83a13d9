package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeVersion(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out := new(bytes.Buffer)
	app.SetOutput(out)
	app.SetArgs(args)
	require.NoError(t, app.Execute())
	return out.String()
}

func TestVersionInfo_String(t *testing.T) {
	tests := []struct {
		name string
		info VersionInfo
		want string
	}{
		{
			name: "stamped",
			info: VersionInfo{Version: "0.9.0", Commit: "3f2c1ab", Date: "2024-01-15T10:30:00Z"},
			want: "floki version 0.9.0\ncommit: 3f2c1ab\nbuilt: 2024-01-15T10:30:00Z\n",
		},
		{
			name: "unstamped",
			want: "floki version dev\ncommit: unknown\nbuilt: unknown\n",
		},
		{
			name: "version only",
			info: VersionInfo{Version: "0.9.0"},
			want: "floki version 0.9.0\ncommit: unknown\nbuilt: unknown\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestVersionCmd_MatchesVersionFlag(t *testing.T) {
	app := New()
	app.SetVersion("0.9.0", "3f2c1ab", "2024-01-15T10:30:00Z")
	fromCmd := executeVersion(t, app, "version")

	app = New()
	app.SetVersion("0.9.0", "3f2c1ab", "2024-01-15T10:30:00Z")
	fromFlag := executeVersion(t, app, "--version")

	assert.Equal(t, "floki version 0.9.0\ncommit: 3f2c1ab\nbuilt: 2024-01-15T10:30:00Z\n", fromCmd)
	assert.Equal(t, fromCmd, fromFlag)
}

func TestVersionFlag_Unstamped(t *testing.T) {
	out := executeVersion(t, New(), "--version")

	assert.True(t, strings.HasPrefix(out, "floki version dev\n"))
	assert.Equal(t, 2, strings.Count(out, "unknown"))
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	app := New()
	app.SetOutput(new(bytes.Buffer))
	app.SetArgs([]string{"version", "extra"})

	assert.Error(t, app.Execute())
}
