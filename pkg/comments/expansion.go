package comments

import "sync"

// Expansion tracks which comments have their replies shown. The flag is
// per node: expanding a parent leaves its children collapsed, and
// collapsing is only a view change, the reply data stays in the tree.
type Expansion struct {
	mu   sync.RWMutex
	open map[string]bool
}

func NewExpansion() *Expansion {
	return &Expansion{open: map[string]bool{}}
}

func (e *Expansion) IsExpanded(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.open[id]
}

func (e *Expansion) Expand(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open[id] = true
}

func (e *Expansion) Collapse(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.open, id)
}

// Toggle flips id and returns the new state.
func (e *Expansion) Toggle(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open[id] {
		delete(e.open, id)
		return false
	}
	e.open[id] = true
	return true
}

// Row is one rendered line of a comment thread.
type Row struct {
	Comment    *Comment
	Depth      int
	ReplyCount int
	Expanded   bool
}

// Visible lists the rows a thread view renders: every top-level comment,
// plus the direct replies of each expanded comment, recursively.
func Visible(tree []*Comment, e *Expansion) []Row {
	rows := []Row{}
	var walk func(nodes []*Comment, depth int)
	walk = func(nodes []*Comment, depth int) {
		for _, n := range nodes {
			expanded := e != nil && e.IsExpanded(n.Id)
			rows = append(rows, Row{
				Comment:    n,
				Depth:      depth,
				ReplyCount: len(n.Replies),
				Expanded:   expanded,
			})
			if expanded {
				walk(n.Replies, depth+1)
			}
		}
	}
	walk(tree, 0)
	return rows
}
