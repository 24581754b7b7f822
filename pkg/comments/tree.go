package comments

// BuildTree threads a flat comment batch into reply trees.
//
// Top-level comments keep the relative order of flat, and so do siblings
// inside every Replies slice. A comment whose parent is not part of the
// batch is promoted to top level. BuildTree never touches flat; every call
// allocates fresh nodes, so calling it twice yields equal trees.
func BuildTree(flat []Comment) []*Comment {
	// First pass: one node per id, first occurrence wins
	nodes := make(map[string]*Comment, len(flat))
	order := make([]*Comment, 0, len(flat))
	for i := range flat {
		if _, ok := nodes[flat[i].Id]; ok {
			continue
		}
		c := flat[i]
		c.Replies = []*Comment{}
		nodes[c.Id] = &c
		order = append(order, &c)
	}

	// Second pass: attach to parents
	attachedTo := make(map[string]string, len(order))
	roots := []*Comment{}
	for _, c := range order {
		parent, ok := nodes[c.ParentId]
		if c.ParentId == "" || !ok || closesCycle(attachedTo, c.Id, c.ParentId) {
			roots = append(roots, c)
			continue
		}
		parent.Replies = append(parent.Replies, c)
		attachedTo[c.Id] = c.ParentId
	}

	return roots
}

// closesCycle reports whether hanging id below parentId would make id its
// own ancestor, given the attachments made so far.
func closesCycle(attachedTo map[string]string, id string, parentId string) bool {
	for cur, hops := parentId, 0; hops <= len(attachedTo); hops++ {
		if cur == id {
			return true
		}
		next, ok := attachedTo[cur]
		if !ok {
			return false
		}
		cur = next
	}
	return true
}

// Flatten walks a tree depth-first and returns every node once.
func Flatten(tree []*Comment) []*Comment {
	out := []*Comment{}
	var walk func([]*Comment)
	walk = func(nodes []*Comment) {
		for _, n := range nodes {
			out = append(out, n)
			walk(n.Replies)
		}
	}
	walk(tree)
	return out
}

// Find returns the node with id, or nil.
func Find(tree []*Comment, id string) *Comment {
	for _, n := range tree {
		if n.Id == id {
			return n
		}
		if found := Find(n.Replies, id); found != nil {
			return found
		}
	}
	return nil
}
