package passage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyNormalizes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"title only", "Doc A", "doc a"},
		{"strips body", "Doc A | some body text", "doc a"},
		{"case folds", "DOC A", "doc a"},
		{"trims", "  Doc A  ", "doc a"},
		{"fullwidth compat", "Ｄｏｃ Ａ", "doc a"},
		{"empty", "", ""},
		{"only delimiter", " | body", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Key(tc.in))
		})
	}
}

func TestKeyIdempotent(t *testing.T) {
	inputs := []string{"Doc A | text", "ÉLAN VITAL", "  mixed Case  ", ""}
	for _, in := range inputs {
		once := Key(in)
		assert.Equal(t, once, Key(once), "Key(Key(%q))", in)
	}
}

func TestFromTextRoundTrip(t *testing.T) {
	p := FromText("Doc A | first sentence | second half", 2, 5)
	assert.Equal(t, "Doc A", p.Title)
	assert.Equal(t, "first sentence | second half", p.Content)
	assert.Equal(t, 2, p.SourceQuery)
	assert.Equal(t, 5, p.Rank)
	assert.Equal(t, "Doc A | first sentence | second half", p.Text())

	bare := FromText("just a title", 0, 0)
	assert.Equal(t, "just a title", bare.Title)
	assert.Empty(t, bare.Content)
	assert.Equal(t, "just a title", bare.Text())
}

func TestPoolDedupsByNormalizedTitle(t *testing.T) {
	pool := NewPool()

	require.True(t, pool.Insert(FromText("Doc A | text1", 0, 0)))
	require.True(t, pool.Insert(FromText("Doc B | text2", 0, 1)))
	require.False(t, pool.Insert(FromText("doc a | different text", 1, 0)))

	assert.Equal(t, 2, pool.Len())

	canonical, ok := pool.Get("doc a")
	require.True(t, ok)
	assert.Equal(t, "text1", canonical.Content, "first seen wins")

	all := pool.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Doc A", all[0].Title)
	assert.Equal(t, "Doc B", all[1].Title)
}

func TestPoolRecordsDuplicateOccurrences(t *testing.T) {
	pool := NewPool()
	pool.Insert(FromText("Doc A | text1", 0, 0))
	pool.Insert(FromText("Doc A | text1", 1, 3))
	pool.Insert(FromText("Doc A | other", 1, 4))

	occ := pool.Occurrences("doc a")
	require.Len(t, occ, 3)
	assert.Equal(t, Occurrence{SourceQuery: 0, Rank: 0}, occ[0])
	assert.Equal(t, Occurrence{SourceQuery: 1, Rank: 3}, occ[1])

	assert.Equal(t, []int{0, 1}, pool.SourceQueries("doc a"))
}

func TestPoolFirstSeenOrdersUnknownLast(t *testing.T) {
	pool := NewPool()
	pool.Insert(FromText("Doc A", 0, 0))
	pool.Insert(FromText("Doc B", 0, 1))

	assert.Equal(t, 0, pool.FirstSeen("doc a"))
	assert.Equal(t, 1, pool.FirstSeen("doc b"))
	assert.Equal(t, 2, pool.FirstSeen("never seen"))
}
