package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vuuvv/structlayout/core"
)

func writeHeader(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "h.h")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunTable(t *testing.T) {
	path := writeHeader(t, "struct S { char c; int i; };")
	var out bytes.Buffer
	err := run(options{file: path, endian: "little", pack: -1, length: -1, hex: "01000000 02000000", check: "fields.i == 2"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Size: 8")
	assert.Contains(t, out.String(), core.PaddingName)
	assert.Contains(t, out.String(), "Check: true")
}

func TestRunJSON(t *testing.T) {
	path := writeHeader(t, "struct S { char c; int i; };")
	var out bytes.Buffer
	err := run(options{file: path, endian: "be", pack: 1, length: -1, flex: "0x01 0x02", json: true}, &out)
	require.NoError(t, err)

	var got struct {
		Layout struct {
			TotalSize uint `json:"totalSize"`
		} `json:"layout"`
		Assembly struct {
			Warnings []string `json:"warnings"`
		} `json:"assembly"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, uint(5), got.Layout.TotalSize)
	assert.Equal(t, []string{"padded 3 bytes with 0x00 from index 2 to 4"}, got.Assembly.Warnings)
}

func TestRunErrors(t *testing.T) {
	path := writeHeader(t, "struct S { char c; };")
	var out bytes.Buffer

	err := run(options{file: path, endian: "middle", pack: -1, length: -1}, &out)
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	err = run(options{file: path, endian: "little", pack: -1, length: -1, check: "true"}, &out)
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	err = run(options{file: path, endian: "little", pack: -1, length: -1, legacy: true, configDir: t.TempDir()}, &out)
	require.NoError(t, err)
}

func TestRunTypes(t *testing.T) {
	var out bytes.Buffer
	err := run(options{types: true, endian: "little", pack: -1, length: -1, configDir: t.TempDir()}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "long long int")
	assert.Contains(t, out.String(), "U32")
}
