package structure

import (
	"fmt"
	"strings"
)

const vendoredNote = "third-party, detail omitted"

// Render draws tree as a fenced text block preceded by a component-root
// label line. Output depends only on the tree, so rendering an unchanged
// directory twice yields identical text.
func Render(tree *Node, label string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Component root: %s\n\n", label)
	b.WriteString("```text\n")
	b.WriteString(nodeLine(tree))
	b.WriteString("\n")
	renderChildren(&b, tree, "")
	b.WriteString("```\n")
	return b.String()
}

func renderChildren(b *strings.Builder, n *Node, prefix string) {
	if n.Err != nil && len(n.Children) == 0 {
		fmt.Fprintf(b, "%s└── [error: %v]\n", prefix, n.Err)
		return
	}
	for i, child := range n.Children {
		last := i == len(n.Children)-1
		b.WriteString(prefix)
		if last {
			b.WriteString("└── ")
		} else {
			b.WriteString("├── ")
		}
		b.WriteString(nodeLine(child))
		b.WriteString("\n")

		if child.Kind != Directory || child.Vendored || child.Note != "" {
			continue
		}
		next := prefix + "│   "
		if last {
			next = prefix + "    "
		}
		renderChildren(b, child, next)
	}
}

func nodeLine(n *Node) string {
	line := n.Name
	if n.Kind == Directory {
		line += "/"
	}
	switch {
	case n.Kind == File && n.Err != nil:
		line += fmt.Sprintf(" [error: %v]", n.Err)
	case n.Vendored && IsVCS(n.Name):
		line += " (version control, detail omitted)"
	case n.Vendored:
		line += " (" + vendoredNote + ")"
	case n.Note != "":
		line += " (" + n.Note + ")"
	case n.Annotation != "":
		line += " (" + n.Annotation + ")"
	}
	return line
}
