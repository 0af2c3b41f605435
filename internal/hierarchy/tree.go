package hierarchy

import (
	"errors"

	"github.com/arbordev/arbor/internal/models"
)

// ErrCycleDetected reports a parent chain that loops back on itself. The
// store's parent checks should make this unreachable in practice; the guard
// turns inconsistent data into an error instead of unbounded recursion.
var ErrCycleDetected = errors.New("cycle detected in user hierarchy")

const (
	chainUnknown = iota
	chainRooted
	chainDropped
)

// BuildTree materializes a flat user list into a forest. Users with no
// parent become roots. A user whose parent chain ends at an id absent from
// the input is an orphan (or an orphan's descendant) and is excluded from
// the result entirely. Children keep the input scan order and are only
// attached when non-empty, so a leaf serializes without a children field.
func BuildTree(users []models.User) ([]*models.User, error) {
	parents := make(map[string]*string, len(users))
	for i := range users {
		parents[users[i].ID] = users[i].ParentUserID
	}

	// Classify every node by following its parent chain: a chain reaching a
	// root keeps the node, a chain ending at a missing id drops the whole
	// branch, and a chain that revisits itself is a cycle. The per-walk path
	// set is what bounds the walk on cyclic data.
	status := make(map[string]int, len(users))
	for id := range parents {
		path := make(map[string]bool)
		var walked []string
		verdict := chainUnknown
		cur := id
		for {
			if s := status[cur]; s != chainUnknown {
				verdict = s
				break
			}
			if path[cur] {
				return nil, ErrCycleDetected
			}
			path[cur] = true
			walked = append(walked, cur)

			parent := parents[cur]
			if parent == nil {
				verdict = chainRooted
				break
			}
			if _, ok := parents[*parent]; !ok {
				verdict = chainDropped
				break
			}
			cur = *parent
		}
		for _, node := range walked {
			status[node] = verdict
		}
	}

	// One linear pass builds the parent -> children index instead of
	// rescanning the whole list per node. Dropped branches never enter the
	// index; they still show up in flat listings, so nothing is invisible.
	children := make(map[string][]*models.User)
	var roots []*models.User
	for i := range users {
		if status[users[i].ID] != chainRooted {
			continue
		}
		node := users[i]
		node.Children = nil
		if node.ParentUserID == nil {
			roots = append(roots, &node)
		} else {
			children[*node.ParentUserID] = append(children[*node.ParentUserID], &node)
		}
	}

	// Every indexed node sits on a chain that terminates at a root, so this
	// recursion cannot loop.
	var attach func(node *models.User)
	attach = func(node *models.User) {
		kids := children[node.ID]
		for _, child := range kids {
			attach(child)
		}
		if len(kids) > 0 {
			node.Children = kids
		}
	}
	for _, root := range roots {
		attach(root)
	}

	return roots, nil
}
