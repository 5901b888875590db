package registry

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vuuvv/structlayout/core"
)

func TestDefaults(t *testing.T) {
	reg := MustNew(nil)

	tests := []struct {
		name  string
		size  uint
		align uint
	}{
		{"char", 1, 1},
		{"bool", 1, 1},
		{"short", 2, 2},
		{"unsigned   int", 4, 4},
		{"float", 4, 4},
		{"long", 8, 8},
		{"unsigned long long", 8, 8},
		{"double", 8, 8},
		{"pointer", 8, 8},
		{"U8", 1, 1},
		{"U16", 2, 2},
		{"U32", 4, 4},
		{"U64", 8, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := reg.Resolve(tt.name)
			require.NoError(t, err)
			assert.Equal(t, core.TypeInfo{Size: tt.size, Align: tt.align}, info)
		})
	}

	_, err := reg.Resolve("wchar_t")
	require.ErrorIs(t, err, core.ErrUnknownType)
	assert.False(t, reg.Known("wchar_t"))
	assert.Len(t, reg.BaseTypes(), 15)
}

func TestLongFormSpellings(t *testing.T) {
	reg := MustNew(nil)

	tests := []struct {
		name string
		want string
	}{
		{"long long int", "long long"},
		{"short int", "short"},
		{"unsigned long int", "unsigned long"},
		{"unsigned", "unsigned int"},
		{"signed", "int"},
		{"unsigned  short int", "unsigned short"},
		{"unsigned long long int", "unsigned long long"},
		{"_Bool", "bool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.Normalize(tt.name))
			assert.True(t, reg.Known(tt.name))
		})
	}
	assert.Equal(t, "unsigned int", reg.Aliases()["unsigned"])
}

func TestMustNewPanicsOnCycle(t *testing.T) {
	assert.Panics(t, func() {
		MustNew(&Config{Aliases: map[string]string{"A": "B", "B": "A"}})
	})
}

func TestNormalizeIsIdempotent(t *testing.T) {
	reg := MustNew(&Config{Aliases: map[string]string{"DWORD": "U32", "LPDWORD": "DWORD"}})

	for _, name := range []string{"U32", "DWORD", "LPDWORD", "  unsigned   int ", "mystery"} {
		once := reg.Normalize(name)
		assert.Equal(t, once, reg.Normalize(once), name)
	}
	assert.Equal(t, "unsigned int", reg.Normalize("LPDWORD"))
	assert.Equal(t, "mystery", reg.Normalize("mystery"))
}

func TestAliasCycle(t *testing.T) {
	_, err := New(&Config{Aliases: map[string]string{"A": "B", "B": "A"}})
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	// 自身映射直接忽略
	reg, err := New(&Config{Aliases: map[string]string{"int": "int"}})
	require.NoError(t, err)
	assert.Equal(t, "int", reg.Normalize("int"))
}

func TestCustomOverridesBase(t *testing.T) {
	reg := MustNew(&Config{
		Types: map[string]core.TypeInfo{
			"long":  {Size: 4, Align: 4},
			"vec3":  {Size: 12, Align: 4},
			"empty": {Size: 0, Align: 1},
		},
		Aliases: map[string]string{"V3": "vec3"},
	})

	info, err := reg.Resolve("long")
	require.NoError(t, err)
	assert.Equal(t, uint(4), info.Size)

	info, err = reg.Resolve("V3")
	require.NoError(t, err)
	assert.Equal(t, core.TypeInfo{Size: 12, Align: 4}, info)

	assert.False(t, reg.Known("empty"))
	assert.Contains(t, reg.TypeNames(), "V3")
	assert.NotContains(t, reg.CustomTypes(), "empty")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata", DefaultAliasesFile), filepath.Join("testdata", DefaultCustomFile))
	require.NoError(t, err)

	assert.Equal(t, "U32", cfg.Aliases["DWORD"])
	assert.Equal(t, "unsigned short", cfg.Aliases["WORD"])
	assert.NotContains(t, cfg.Aliases, "BAD")

	assert.Equal(t, core.TypeInfo{Size: 12, Align: 4}, cfg.Types["vec3"])
	assert.Equal(t, core.TypeInfo{Size: 16, Align: 8}, cfg.Types["fixed 128"])
	assert.NotContains(t, cfg.Types, "broken")
	assert.NotContains(t, cfg.Types, "negative")
	assert.NotContains(t, cfg.Types, "notamap")

	reg, err := New(cfg)
	require.NoError(t, err)
	info, err := reg.Resolve("DWORD")
	require.NoError(t, err)
	assert.Equal(t, uint(4), info.Size)
}

func TestLoadConfigMissingFiles(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.NoError(t, err)
	assert.Empty(t, cfg.Aliases)
	assert.Empty(t, cfg.Types)
}

func TestParseConfigRejectsGarbage(t *testing.T) {
	_, err := ParseConfig([]byte("aliases: [unclosed"), nil)
	assert.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvAliasesPath, filepath.Join("testdata", DefaultAliasesFile))
	t.Setenv(EnvCustomPath, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := ConfigFromEnv(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "unsigned char", cfg.Aliases["BYTE"])
	assert.Empty(t, cfg.Types)
}

func TestConcurrentReaders(t *testing.T) {
	reg := MustNew(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = reg.Resolve("U32")
				_ = reg.Normalize("U64")
			}
		}()
	}
	wg.Wait()
}
