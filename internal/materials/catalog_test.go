package materials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	require.Len(t, c.Groups(), 3)
	assert.Len(t, c.Materials(), 12)

	alum, ok := c.Material("alum")
	require.True(t, ok)
	assert.Equal(t, "main", alum.Group)
	assert.False(t, alum.HasFixedPrice())

	assert.Equal(t, "Стекло", c.Title("glass"))
	assert.Equal(t, "retired", c.Title("retired"))
}

func TestParse_FixedPrice(t *testing.T) {
	c, err := Parse([]byte(`
groups:
  - key: mix
    title: Mix
    materials:
      - key: pet_mix
        title: PET mix
        fixed_price: 12.5
`))
	require.NoError(t, err)

	m, ok := c.Material("pet_mix")
	require.True(t, ok)
	require.True(t, m.HasFixedPrice())
	assert.Equal(t, "12.5", m.FixedPrice.String())
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":     `groups: []`,
		"bad key":   "groups:\n  - key: main\n    title: M\n    materials:\n      - key: Alum!\n        title: A\n",
		"duplicate": "groups:\n  - key: main\n    title: M\n    materials:\n      - key: a\n        title: A\n      - key: a\n        title: B\n",
		"negative":  "groups:\n  - key: main\n    title: M\n    materials:\n      - key: a\n        title: A\n        fixed_price: -1\n",
		"no title":  "groups:\n  - key: main\n    title: M\n    materials:\n      - key: a\n",
		"empty grp": "groups:\n  - key: main\n    title: M\n",
		"not yaml":  "groups: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestParse_TooMany(t *testing.T) {
	data := "groups:\n  - key: main\n    title: M\n    materials:\n"
	for i := 0; i < MaxMaterials+1; i++ {
		data += "      - key: m" + string(rune('a'+i)) + "\n        title: T\n"
	}
	_, err := Parse([]byte(data))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Len(t, c.Materials(), 12)

	path := filepath.Join(t.TempDir(), "materials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("groups:\n  - key: main\n    title: M\n    materials:\n      - key: alum\n        title: Al\n"), 0o600))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Materials(), 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
