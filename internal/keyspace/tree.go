package keyspace

import "strings"

// TreeNode is one node of the delimiter-derived key tree. A node can be a
// group (has children) and a key (directly selectable) at the same time;
// both facts are preserved, never collapsed.
type TreeNode struct {
	Segment  string               `json:"segment"`
	Children map[string]*TreeNode `json:"children,omitempty"`
	IsKey    bool                 `json:"isKey"`
	FullKey  string               `json:"fullKey,omitempty"`
}

// BuildTree derives a tree from flat key names split on delimiter. Pure:
// identical inputs always produce a value-equal tree; the source slice is
// never mutated. An empty delimiter yields a flat tree of key leaves.
func BuildTree(keys []string, delimiter string) *TreeNode {
	root := &TreeNode{Children: make(map[string]*TreeNode)}

	for _, key := range keys {
		var segments []string
		if delimiter == "" {
			segments = []string{key}
		} else {
			segments = strings.Split(key, delimiter)
		}

		node := root
		for i, seg := range segments {
			if node.Children == nil {
				node.Children = make(map[string]*TreeNode)
			}
			child, ok := node.Children[seg]
			if !ok {
				child = &TreeNode{Segment: seg}
				node.Children[seg] = child
			}
			if i == len(segments)-1 {
				child.IsKey = true
				child.FullKey = key
			}
			node = child
		}
	}

	return root
}
