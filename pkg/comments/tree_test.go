package comments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func c(id string, parent string) Comment {
	return Comment{Id: id, ParentId: parent, Text: "comment " + id}
}

func ids(nodes []*Comment) []string {
	out := []string{}
	for _, n := range nodes {
		out = append(out, n.Id)
	}
	return out
}

func TestBuildTreeIsIdempotent(t *testing.T) {
	flat := []Comment{c("1", ""), c("2", "1"), c("3", "1"), c("4", ""), c("5", "4"), c("6", "99")}

	first := BuildTree(flat)
	second := BuildTree(flat)

	assert.Equal(t, first, second)
	// Input untouched
	for _, cm := range flat {
		assert.Nil(t, cm.Replies)
	}
}

func TestBuildTreeOrphanPromotion(t *testing.T) {
	tree := BuildTree([]Comment{c("1", ""), c("2", "99")})

	require.Len(t, tree, 2)
	assert.Equal(t, []string{"1", "2"}, ids(tree))
	assert.Empty(t, tree[0].Replies)
}

func TestBuildTreeDepthPreservation(t *testing.T) {
	tree := BuildTree([]Comment{c("1", ""), c("2", "1"), c("3", "2")})

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "2", tree[0].Replies[0].Id)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, "3", tree[0].Replies[0].Replies[0].Id)
}

func TestBuildTreeKeepsInputOrder(t *testing.T) {
	// Child listed before its parent still attaches, siblings stay ordered
	tree := BuildTree([]Comment{c("b", "a"), c("x", ""), c("a", ""), c("c", "a")})

	assert.Equal(t, []string{"x", "a"}, ids(tree))
	assert.Equal(t, []string{"b", "c"}, ids(tree[1].Replies))
}

func TestBuildTreeDuplicateIds(t *testing.T) {
	tree := BuildTree([]Comment{c("1", ""), c("2", "1"), c("2", "1")})

	require.Len(t, tree, 1)
	assert.Len(t, tree[0].Replies, 1)
	assert.Len(t, Flatten(tree), 2)
}

func TestBuildTreeBreaksCycles(t *testing.T) {
	tree := BuildTree([]Comment{c("a", "b"), c("b", "a"), c("self", "self")})

	// Every comment visible exactly once
	assert.ElementsMatch(t, []string{"a", "b", "self"}, ids(Flatten(tree)))
	assert.Equal(t, []string{"b", "self"}, ids(tree))
	assert.Equal(t, []string{"a"}, ids(tree[0].Replies))
}

func TestBuildTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildTree(nil))
}

func TestFind(t *testing.T) {
	tree := BuildTree([]Comment{c("1", ""), c("2", "1"), c("3", "2")})

	found := Find(tree, "3")
	require.NotNil(t, found)
	assert.Equal(t, "2", found.ParentId)
	assert.Nil(t, Find(tree, "nope"))
}

func TestScore(t *testing.T) {
	cm := Comment{LikeCount: 7, DislikeCount: 9}
	assert.Equal(t, -2, cm.Score())
}
