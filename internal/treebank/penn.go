// Package treebank renders constituency parses in Penn Treebank bracket notation.
package treebank

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

// Tree is an arena of constituents sorted by ID, with child lists resolved
// to arena positions.
type Tree struct {
	labels   []string
	children [][]int
}

// Build sorts the constituents of parse by ID and resolves child IDs to arena
// positions. The root is the constituent with the lowest ID. Constituents
// unreachable from the root are kept but never rendered; a cycle reachable
// from the root is an error.
func Build(parse domain.Parse) (*Tree, error) {
	nodes := make([]domain.Constituent, len(parse.ConstituentList))
	copy(nodes, parse.ConstituentList)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: parse has no constituents", domain.ErrTreeIntegrity)
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	pos := make(map[int]int, len(nodes))
	for i, n := range nodes {
		if _, dup := pos[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate constituent id %d", domain.ErrTreeIntegrity, n.ID)
		}
		pos[n.ID] = i
	}

	t := &Tree{
		labels:   make([]string, len(nodes)),
		children: make([][]int, len(nodes)),
	}
	for i, n := range nodes {
		t.labels[i] = n.Tag
		if len(n.ChildList) == 0 {
			continue
		}
		kids := make([]int, len(n.ChildList))
		for k, id := range n.ChildList {
			p, ok := pos[id]
			if !ok {
				return nil, fmt.Errorf("%w: constituent %d references unknown child %d",
					domain.ErrTreeIntegrity, n.ID, id)
			}
			kids[k] = p
		}
		t.children[i] = kids
	}
	if err := t.walk(0, make([]bool, len(nodes)), func(int) {}); err != nil {
		return nil, err
	}
	return t, nil
}

// walk visits the subtree at position i in pre-order.
func (t *Tree) walk(i int, onPath []bool, visit func(int)) error {
	if onPath[i] {
		return fmt.Errorf("%w: cycle through constituent %q", domain.ErrTreeIntegrity, t.labels[i])
	}
	onPath[i] = true
	visit(i)
	for _, c := range t.children[i] {
		if err := t.walk(c, onPath, visit); err != nil {
			return err
		}
	}
	onPath[i] = false
	return nil
}

// String renders the tree rooted at the lowest-ID constituent. Inner nodes
// become "(LABEL child child ...)" with every child after the first on its own
// line, indented by the running label width. Leaves are bare labels.
func (t *Tree) String() string {
	var b strings.Builder
	t.render(&b, 0, 0)
	return b.String()
}

func (t *Tree) render(b *strings.Builder, i, indent int) {
	label := t.labels[i]
	kids := t.children[i]
	if len(kids) == 0 {
		b.WriteString(label)
		return
	}

	indent += len(label) + 2
	b.WriteByte('(')
	b.WriteString(label)
	b.WriteByte(' ')
	for k, c := range kids {
		if k > 0 {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", indent))
		}
		t.render(b, c, indent)
	}
	b.WriteByte(')')
}

// Serialize renders parse as a bracketed tree without the outer wrapper.
func Serialize(parse domain.Parse) (string, error) {
	t, err := Build(parse)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// Document renders parse as a complete treebank file entry: the tree wrapped
// in an extra pair of parentheses and terminated by a newline, as read by
// chunklink.
func Document(parse domain.Parse) (string, error) {
	s, err := Serialize(parse)
	if err != nil {
		return "", err
	}
	return Wrap(s), nil
}

// Wrap adds the top-level "( ... )" wrapper and trailing newline.
func Wrap(tree string) string {
	return "( " + tree + " )\n"
}
