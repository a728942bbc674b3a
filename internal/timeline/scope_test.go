package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeNaming(t *testing.T) {
	cases := map[Scope]string{
		Home(7):                       "home:7",
		List(3):                       "list:3",
		Public():                      "public",
		PublicLocal().Media():         "public:local:media",
		PublicDomain("Example.COM"):   "public:domain:example.com",
		Hashtag("GoLang"):             "hashtag:golang",
		HashtagLocal("go"):            "hashtag:go:local",
		Group(9).Media():              "group:9:media",
		Public().Media().Media():      "public:media",
	}
	for s, want := range cases {
		assert.Equal(t, want, string(s))
	}
}

func TestKeyAndChannelShareScope(t *testing.T) {
	s := Hashtag("go").Media()
	assert.Equal(t, "feed:hashtag:go:media", s.Key())
	assert.Equal(t, "timeline:hashtag:go:media", s.Channel())
	assert.Equal(t, "hashtag", s.Kind())
}

func TestPersonal(t *testing.T) {
	assert.True(t, Home(1).Personal())
	assert.True(t, List(1).Personal())
	assert.False(t, Public().Personal())
	assert.False(t, Group(1).Personal())
}

func TestParseScope(t *testing.T) {
	for _, raw := range []string{"home:1", "list:2", "public", "public:local", "public:remote:media", "public:domain:a.b", "hashtag:go", "hashtag:go:local", "group:5:media"} {
		s, err := ParseScope(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, string(s))
	}
	for _, raw := range []string{"", "home", "home:x", "public:elsewhere", "hashtag:", "feed:home:1"} {
		_, err := ParseScope(raw)
		assert.ErrorIs(t, err, ErrInvalidScope, raw)
	}
}

func TestOwner(t *testing.T) {
	id, ok := Home(7).Media().Owner()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
	id, ok = List(3).Owner()
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
	_, ok = Hashtag("go").Owner()
	assert.False(t, ok)
}
