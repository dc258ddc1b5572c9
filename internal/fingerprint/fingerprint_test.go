package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "news-enricher/internal/common/errors"
)

func TestNew(t *testing.T) {
	t.Run("produces 16 hex characters", func(t *testing.T) {
		fp, err := New("https://example.com/story")
		require.NoError(t, err)
		assert.Len(t, string(fp), 16)
		assert.Regexp(t, "^[0-9a-f]{16}$", string(fp))
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := New("https://example.com/story")
		require.NoError(t, err)
		b, err := New("https://example.com/story")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("distinct URLs give distinct fingerprints", func(t *testing.T) {
		a, err := New("https://example.com/story-one")
		require.NoError(t, err)
		b, err := New("https://example.com/story-two")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestNew_CanonicalEquivalence(t *testing.T) {
	base, err := New("https://example.com/story")
	require.NoError(t, err)

	equivalents := map[string]string{
		"uppercase host":         "https://EXAMPLE.COM/story",
		"uppercase scheme":       "HTTPS://example.com/story",
		"default https port":     "https://example.com:443/story",
		"trailing slash":         "https://example.com/story/",
		"fragment":               "https://example.com/story#section-2",
		"utm parameters":         "https://example.com/story?utm_source=feed&utm_medium=rss",
		"facebook click id":      "https://example.com/story?fbclid=abc123",
		"google click id":        "https://example.com/story?gclid=xyz789",
		"surrounding whitespace": "  https://example.com/story  ",
	}

	for name, raw := range equivalents {
		t.Run(name, func(t *testing.T) {
			fp, err := New(raw)
			require.NoError(t, err)
			assert.Equal(t, base, fp)
		})
	}
}

func TestNew_PreservesMeaningfulParts(t *testing.T) {
	t.Run("content query parameters survive", func(t *testing.T) {
		plain, err := New("https://example.com/story")
		require.NoError(t, err)
		withQuery, err := New("https://example.com/story?page=2")
		require.NoError(t, err)
		assert.NotEqual(t, plain, withQuery)
	})

	t.Run("query parameter order is irrelevant", func(t *testing.T) {
		a, err := New("https://example.com/story?a=1&b=2")
		require.NoError(t, err)
		b, err := New("https://example.com/story?b=2&a=1")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("path case is preserved", func(t *testing.T) {
		lower, err := New("https://example.com/story")
		require.NoError(t, err)
		upper, err := New("https://example.com/STORY")
		require.NoError(t, err)
		assert.NotEqual(t, lower, upper)
	})

	t.Run("non-default port is preserved", func(t *testing.T) {
		plain, err := New("https://example.com/story")
		require.NoError(t, err)
		withPort, err := New("https://example.com:8443/story")
		require.NoError(t, err)
		assert.NotEqual(t, plain, withPort)
	})
}

func TestNew_InvalidInput(t *testing.T) {
	cases := map[string]string{
		"empty string":     "",
		"whitespace only":  "   ",
		"no scheme":        "example.com/story",
		"ftp scheme":       "ftp://example.com/file",
		"scheme only":      "https://",
		"not a url at all": "::::not a url::::",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(raw)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidIdentifier))
		})
	}
}

func TestCanonicalize(t *testing.T) {
	t.Run("strips only tracking parameters", func(t *testing.T) {
		canonical, err := Canonicalize("https://example.com/story?utm_campaign=spring&id=42&utm_term=x")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/story?id=42", canonical)
	})

	t.Run("root path keeps no trailing slash", func(t *testing.T) {
		canonical, err := Canonicalize("https://example.com/")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", canonical)
	})

	t.Run("strips default http port", func(t *testing.T) {
		canonical, err := Canonicalize("http://example.com:80/story")
		require.NoError(t, err)
		assert.Equal(t, "http://example.com/story", canonical)
	})
}
