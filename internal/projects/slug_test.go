package projects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":              "hello-world",
		"  Café Déjà Vu  ":         "cafe-deja-vu",
		"Go + PostgreSQL: a story": "go-postgresql-a-story",
		"Crème brûlée #2":          "creme-brulee-2",
		"---":                      "",
		"Ünïcödé":                  "unicode",
		"日本語":                      "",
	}
	for in, want := range cases {
		assert.Equalf(t, want, Slugify(in), "input %q", in)
	}
}

func TestSlugifyTruncates(t *testing.T) {
	slug := Slugify(strings.Repeat("word ", 40))
	assert.LessOrEqual(t, len(slug), maxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestNormalizeTechStack(t *testing.T) {
	assert.Equal(t, []string{"Go", "Redis", "PostgreSQL"}, NormalizeTechStack([]string{" Go", "Redis", "", "go", "PostgreSQL ", "redis"}))
	assert.Equal(t, []string{"Go", "HTMX"}, SplitTechStack("Go, ,HTMX,go"))
	assert.Empty(t, SplitTechStack(""))
}
