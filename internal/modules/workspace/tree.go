package workspace

import (
	"sort"
	"strings"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
)

// BuildTree synthesizes folders from path segments. Every level is sorted
// folders first, then by name.
func BuildTree(files []FileResult) []*learning.FileNode {
	root := &learning.FileNode{Type: learning.NodeFolder}
	folders := map[string]*learning.FileNode{"": root}

	for _, f := range files {
		segs := strings.Split(strings.Trim(f.Path, "/"), "/")
		parent := root
		for i := 0; i < len(segs)-1; i++ {
			dir := strings.Join(segs[:i+1], "/")
			node, ok := folders[dir]
			if !ok {
				node = &learning.FileNode{Name: segs[i], Path: dir, Type: learning.NodeFolder}
				folders[dir] = node
				parent.Children = append(parent.Children, node)
			}
			parent = node
		}
		parent.Children = append(parent.Children, &learning.FileNode{
			Name:    segs[len(segs)-1],
			Path:    strings.Join(segs, "/"),
			Type:    learning.NodeFile,
			Size:    f.Size,
			Content: f.Text(),
		})
	}
	sortNodes(root.Children)
	return root.Children
}

func sortNodes(nodes []*learning.FileNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.Type != b.Type {
			return a.Type == learning.NodeFolder
		}
		return a.Name < b.Name
	})
	for _, n := range nodes {
		if n.Type == learning.NodeFolder {
			sortNodes(n.Children)
		}
	}
}

// CountFiles counts file leaves.
func CountFiles(nodes []*learning.FileNode) int {
	n := 0
	for _, node := range nodes {
		if node.Type == learning.NodeFile {
			n++
			continue
		}
		n += CountFiles(node.Children)
	}
	return n
}
