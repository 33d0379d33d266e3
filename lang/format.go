package lang

import (
	"context"
	"io"
	"strings"

	"github.com/loreleva/Bbo-functions/lang/ast"
)

// Format writes the program root in canonical source form: one auxiliary
// definition per line, single spaces around binary operators and after
// commas, comments dropped. Parsing the output yields an equal tree.
func Format(_ context.Context, w io.Writer, root *ast.Node) error {
	var sb strings.Builder

	if root.Label == LabelProgram {
		last := root.Len() - 1

		for i, child := range root.Children {
			if i < last {
				writeAux(&sb, child)

				continue
			}

			writeNode(&sb, child)
		}
	} else {
		writeNode(&sb, root)
	}

	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())

	return err
}

// FormatString returns the canonical form of src.
func FormatString(ctx context.Context, src string, opts ...Option) (string, error) {
	root, err := Parse(ctx, src, opts...)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	if err := Format(ctx, &sb, root); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func writeAux(sb *strings.Builder, n *ast.Node) {
	sb.WriteString(KeywordVar)
	sb.WriteByte(' ')

	if n.Len() == 2 {
		sb.WriteString(n.Child(0).Value)
		sb.WriteString(" = ")
		writeNode(sb, n.Child(1))
	}

	sb.WriteString(";\n")
}

func writeNode(sb *strings.Builder, n *ast.Node) {
	switch n.Label {
	case LabelExpression:
		for i, child := range n.Children {
			if i%2 == 1 {
				sb.WriteByte(' ')
				sb.WriteString(child.Value)
				sb.WriteByte(' ')

				continue
			}

			writeNode(sb, child)
		}

	case LabelNegation:
		sb.WriteByte('-')
		writeChildren(sb, n, "")

	case LabelSimple:
		writeChildren(sb, n, "")

	case LabelBracket:
		sb.WriteByte('(')
		writeChildren(sb, n, "")
		sb.WriteByte(')')

	case LabelVector:
		sb.WriteByte('[')
		writeChildren(sb, n, ", ")
		sb.WriteByte(']')

	case LabelEntry:
		sb.WriteByte('[')
		writeChildren(sb, n, "")
		sb.WriteByte(']')

	case LabelRange:
		sb.WriteByte('[')
		writeChildren(sb, n, ":")
		sb.WriteByte(']')

	case LabelFunction:
		if n.Len() == 2 {
			sb.WriteString(n.Child(0).Value)
			sb.WriteByte('(')
			writeNode(sb, n.Child(1))
			sb.WriteByte(')')
		}

	case LabelApply:
		sb.WriteString(KeywordApply)
		sb.WriteByte('(')
		writeChildren(sb, n, ", ")
		sb.WriteByte(')')

	default:
		sb.WriteString(n.Value)
	}
}

func writeChildren(sb *strings.Builder, n *ast.Node, sep string) {
	for i, child := range n.Children {
		if i > 0 {
			sb.WriteString(sep)
		}

		writeNode(sb, child)
	}
}
