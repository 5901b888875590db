package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vuuvv/structlayout/codec"
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/layout"
	"github.com/vuuvv/structlayout/parser"
	"github.com/vuuvv/structlayout/registry"
)

func decode(t *testing.T, src, hex string) *Env {
	t.Helper()
	def, err := parser.Parse(src)
	require.NoError(t, err)
	r, err := layout.New(registry.MustNew(nil)).Compute(def)
	require.NoError(t, err)
	rows, err := codec.DecodeHex(hex, r.Items, r.TotalSize, core.Little)
	require.NoError(t, err)
	return NewEnv(rows)
}

func TestCheck(t *testing.T) {
	env := decode(t, "struct H { U8 magic; bool ok; U16 len; U32 crc; };", "A5 01 0800 ffffffff")

	assert.Equal(t, int64(0xA5), env.Fields["magic"])
	assert.Equal(t, true, env.Fields["ok"])
	assert.NotContains(t, env.Fields, core.PaddingName)

	tests := []struct {
		src  string
		want bool
	}{
		{"fields.magic == 0xA5", true},
		{"fields.ok && fields.len == 8", true},
		{"offsets.crc == 4 && sizes.crc == 4", true},
		{"fields.crc == 4294967295", true},
		{"fields.len > 100", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ev, err := Compile(tt.src)
			require.NoError(t, err)
			got, err := ev.Check(env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecute(t *testing.T) {
	env := decode(t, "struct P { short a; short b; };", "0200 0300")

	ev, err := Compile("fields.a * fields.b")
	require.NoError(t, err)
	out, err := ev.Execute(env)
	require.NoError(t, err)
	assert.Equal(t, int64(6), out)

	_, err = ev.Check(env)
	require.ErrorIs(t, err, core.ErrValue)
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("fields.a ==")
	require.ErrorIs(t, err, core.ErrValue)

	ev, err := Compile("fields.missing == 1")
	require.NoError(t, err)
	_, err = ev.Check(&Env{})
	assert.Error(t, err)
}
