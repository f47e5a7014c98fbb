package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"IAL/Mathematics", "IAL/Mathematics"},
		{"/IAL//Mathematics/", "IAL/Mathematics"},
		{"///IAL///Mathematics///2022///", "IAL/Mathematics/2022"},
		{"", ""},
		{"///", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in), "input %q", tt.in)
	}
}

// Round-trip law: every paper reachable via breadcrumbs B satisfies
// decode(encode(B)) == that paper.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	cat := loadFixture(t)

	visited := 0
	cat.Walk(func(crumbs []string, p *Paper) {
		visited++
		loc, err := cat.DecodePath(EncodePath(crumbs))
		require.NoError(t, err, "path %q", EncodePath(crumbs))
		assert.Equal(t, p, loc.Paper)
		assert.Equal(t, crumbs, loc.Breadcrumbs)
	})
	assert.Equal(t, 7, visited)
}

func TestDecodePathNormalizesFirst(t *testing.T) {
	cat := loadFixture(t)

	loc, err := cat.DecodePath("//IAL//Mathematics/2022/May-June/P1/")
	require.NoError(t, err)
	assert.Equal(t, "P1", loc.Paper.Name)
	assert.Equal(t, "IAL/Mathematics/2022/May-June/P1", EncodePath(loc.Breadcrumbs))
}

func TestDecodePathNotFound(t *testing.T) {
	cat := loadFixture(t)

	cases := []string{
		"",
		"IAL",
		"IAL/Mathematics",
		"IAL/Mathematics/2022/May-June",
		"IAL/Mathematics/2022/May-June/P9",
		"IAL/Astronomy/2022/May-June/P1",
		"IAL/Mathematics/2022/May-June/P1/extra",
	}
	for _, path := range cases {
		_, err := cat.DecodePath(path)
		assert.ErrorIs(t, err, ErrNotFound, "path %q", path)
	}
}

func TestLocationMeta(t *testing.T) {
	cat := loadFixture(t)

	loc, err := cat.DecodePath("IAL/Mathematics/2022/May-June/P1")
	require.NoError(t, err)
	meta := loc.Meta()
	assert.Equal(t, "IAL", meta.ExamBoard)
	assert.Equal(t, "Mathematics", meta.Subject)
	assert.Equal(t, "2022", meta.Year)
	assert.Equal(t, "May-June", meta.Session)
	assert.Equal(t, "P1", meta.PaperCode)

	// Leaf directly under the year: no session folder.
	loc, err = cat.DecodePath("IAL/Physics/2023/Special Paper")
	require.NoError(t, err)
	meta = loc.Meta()
	assert.Equal(t, "2023", meta.Year)
	assert.Equal(t, "", meta.Session)
	assert.Equal(t, "SP1", meta.PaperCode)
}
