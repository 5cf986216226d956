package cache

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Run("joins namespace method path and query", func(t *testing.T) {
		query := url.Values{}
		query.Set("page", "1")
		query.Set("size", "25")

		key := Key("taxgeo", "GET", "/api/v1/organizations", query)
		assert.Equal(t, "taxgeo:get:/api/v1/organizations:[page=1 size=25]", key)
	})

	t.Run("method is lowercased", func(t *testing.T) {
		a := Key("taxgeo", "GET", "/x", nil)
		b := Key("taxgeo", "get", "/x", nil)
		assert.Equal(t, a, b)
	})

	t.Run("query order does not matter", func(t *testing.T) {
		first, _ := url.ParseQuery("b=2&a=1&c=3")
		second, _ := url.ParseQuery("c=3&a=1&b=2")

		assert.Equal(t, Key("ns", "get", "/p", first), Key("ns", "get", "/p", second))
	})

	t.Run("repeated parameters are kept", func(t *testing.T) {
		query, _ := url.ParseQuery("id__in=1&id__in=2")
		key := Key("ns", "get", "/p", query)
		assert.Contains(t, key, "id__in=1")
		assert.Contains(t, key, "id__in=2")
	})

	t.Run("empty query yields empty item list", func(t *testing.T) {
		key := Key("ns", "get", "/p", url.Values{})
		assert.Equal(t, "ns:get:/p:[]", key)
	})

	t.Run("different values produce different keys", func(t *testing.T) {
		one, _ := url.ParseQuery("page=1")
		two, _ := url.ParseQuery("page=2")
		assert.NotEqual(t, Key("ns", "get", "/p", one), Key("ns", "get", "/p", two))
	})
}
