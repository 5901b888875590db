package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/registry"
)

func TestParseLegacy(t *testing.T) {
	reg := registry.MustNew(nil)

	def, err := ParseLegacy(`
// leading noise
int global;
struct Legacy {
    U8 kind;
    wchar_t unknown;
    char *name;
    struct { int x; } nested;
    struct Other ref;
    unsigned   int flags : 4;
    U16 table[2][2];
    this is not valid (at all);
    double ratio;
};
struct Second { int ignored; };
`, reg)
	require.NoError(t, err)

	assert.Equal(t, core.KindStruct, def.Kind)
	assert.Equal(t, "Legacy", def.Name)
	assert.Equal(t, []core.FlatMember{
		{Type: "unsigned char", Name: "kind"},
		{Type: core.TypePointer, Name: "name"},
		{Type: "unsigned int", Name: "flags", IsBitfield: true, BitSize: 4},
		{Type: "unsigned short", Name: "table", ArrayDims: []uint{2, 2}},
		{Type: "double", Name: "ratio"},
	}, def.Members)
}

func TestParseLegacyUnionAndPack(t *testing.T) {
	def, err := ParseLegacy("#pragma pack(push, 2)\nunion Word { short s; char c[2]; };\n#pragma pack(pop)", registry.MustNew(nil))
	require.NoError(t, err)
	assert.Equal(t, core.KindUnion, def.Kind)
	assert.Equal(t, uint(2), def.Pack)
	assert.Len(t, def.Members, 2)
}

func TestParseLegacyNoStruct(t *testing.T) {
	_, err := ParseLegacy("typedef struct { int a; } Anon;", registry.MustNew(nil))
	require.ErrorIs(t, err, core.ErrParse)
}

func TestParseLegacyVersusAST(t *testing.T) {
	src := "struct Mixed { int a; mystery_t b; };"

	def, err := ParseLegacy(src, registry.MustNew(nil))
	require.NoError(t, err)
	require.Len(t, def.Members, 1)

	// AST 路径保留原始类型, 由布局阶段报错
	ast, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, ast.Body().Members, 2)
	assert.Equal(t, "mystery_t", ast.Body().Members[1].Type)
}
