package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteAliases(t *testing.T) {
	t.Run("Should rewrite a plain reference marker", func(t *testing.T) {
		got := RewriteAliases("model: __REF__gpt\n", nil)
		assert.Equal(t, "model: *gpt\n", got)
	})
	t.Run("Should rewrite quoted markers the serializer produced", func(t *testing.T) {
		got := RewriteAliases("model: \"__REF__gpt\"\n", nil)
		assert.Equal(t, "model: *gpt\n", got)
		got = RewriteAliases("model: '__REF__gpt'\n", nil)
		assert.Equal(t, "model: *gpt\n", got)
	})
	t.Run("Should rewrite a merge marker into merge-key syntax", func(t *testing.T) {
		got := RewriteAliases("  __MERGE__: gpt\n  name: mini\n", nil)
		assert.Equal(t, "  <<: *gpt\n  name: mini\n", got)
	})
	t.Run("Should rewrite sequence entries", func(t *testing.T) {
		got := RewriteAliases("tools:\n- __REF__search\n- __REF__lookup\n", nil)
		assert.Equal(t, "tools:\n- *search\n- *lookup\n", got)
	})
	t.Run("Should apply the rename function to every marker", func(t *testing.T) {
		rename := func(key string) string {
			if key == "gpt" {
				return "primary_model"
			}
			return key
		}
		got := RewriteAliases("model: __REF__gpt\n__MERGE__: gpt\nother: __REF__x\n", rename)
		assert.Equal(t, "model: *primary_model\n<<: *primary_model\nother: *x\n", got)
	})
	t.Run("Should leave marker-free text untouched", func(t *testing.T) {
		text := "agents:\n  helper:\n    name: helper\n"
		assert.Equal(t, text, RewriteAliases(text, nil))
	})
	t.Run("Should leave no marker substring behind", func(t *testing.T) {
		got := RewriteAliases("a: __REF__x\nb:\n  __MERGE__: y\n", nil)
		assert.False(t, strings.Contains(got, "__REF__"))
		assert.False(t, strings.Contains(got, "__MERGE__"))
	})
}
