package corpus

import (
	"context"
	"sort"
	"strings"
)

// NodeType distinguishes files from directories in a Tree.
type NodeType string

const (
	NodeFile      NodeType = "file"
	NodeDirectory NodeType = "directory"
)

// Node is one entry of the document tree.
type Node struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Type     NodeType `json:"type"`
	Children []*Node  `json:"children,omitempty"`
}

// Tree returns the documents as a directory tree. Directories without
// documents are left out. Within a directory, subdirectories come first,
// each group sorted by name.
func (d *Dir) Tree(ctx context.Context) ([]*Node, error) {
	root := &Node{Type: NodeDirectory}
	dirs := map[string]*Node{"": root}

	err := d.Walk(ctx, func(fi FileInfo) error {
		parent := root
		parts := strings.Split(fi.Path, "/")
		for i := 0; i < len(parts)-1; i++ {
			dirPath := strings.Join(parts[:i+1], "/")
			node, ok := dirs[dirPath]
			if !ok {
				node = &Node{Name: parts[i], Path: dirPath, Type: NodeDirectory}
				dirs[dirPath] = node
				parent.Children = append(parent.Children, node)
			}
			parent = node
		}
		parent.Children = append(parent.Children, &Node{
			Name: parts[len(parts)-1],
			Path: fi.Path,
			Type: NodeFile,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortTree(root)
	if root.Children == nil {
		return []*Node{}, nil
	}
	return root.Children, nil
}

func sortTree(n *Node) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Type != b.Type {
			return a.Type == NodeDirectory
		}
		return a.Name < b.Name
	})
	for _, c := range n.Children {
		if c.Type == NodeDirectory {
			sortTree(c)
		}
	}
}
