package comments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rowIds(rows []Row) []string {
	out := []string{}
	for _, r := range rows {
		out = append(out, r.Comment.Id)
	}
	return out
}

func TestVisibleDoesNotRecurseIntoCollapsedChildren(t *testing.T) {
	tree := BuildTree([]Comment{c("1", ""), c("2", "1"), c("3", "2"), c("4", "")})
	e := NewExpansion()

	assert.Equal(t, []string{"1", "4"}, rowIds(Visible(tree, e)))

	e.Expand("1")
	rows := Visible(tree, e)
	assert.Equal(t, []string{"1", "2", "4"}, rowIds(rows))
	assert.Equal(t, 1, rows[1].Depth)
	assert.Equal(t, 1, rows[1].ReplyCount)
	assert.False(t, rows[1].Expanded)

	e.Expand("2")
	assert.Equal(t, []string{"1", "2", "3", "4"}, rowIds(Visible(tree, e)))
}

func TestCollapseKeepsReplies(t *testing.T) {
	tree := BuildTree([]Comment{c("1", ""), c("2", "1")})
	e := NewExpansion()

	assert.True(t, e.Toggle("1"))
	assert.False(t, e.Toggle("1"))
	assert.False(t, e.IsExpanded("1"))

	assert.Len(t, tree[0].Replies, 1)
	assert.Equal(t, []string{"1"}, rowIds(Visible(tree, e)))

	e.Expand("1")
	e.Collapse("1")
	assert.False(t, e.IsExpanded("1"))
}

func TestVisibleWithoutExpansion(t *testing.T) {
	tree := BuildTree([]Comment{c("1", ""), c("2", "1")})
	assert.Equal(t, []string{"1"}, rowIds(Visible(tree, nil)))
}
