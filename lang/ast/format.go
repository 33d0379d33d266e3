package ast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Print writes an indented tree dump of n to w, one node per line.
func (n *Node) Print(w io.Writer, indent int) error {
	for depth, node := range n.Walk() {
		line := strings.Repeat(" ", depth*indent) + node.Label
		if node.HasValue {
			line += " " + strconv.Quote(node.Value)
		}

		if node.Line > 0 {
			line += fmt.Sprintf(" @%d:%d", node.Line, node.Column)
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

// ToMap converts n to nested maps and slices for serialization.
func (n *Node) ToMap() map[string]any {
	if n == nil {
		return nil
	}

	m := map[string]any{"label": n.Label}

	if n.HasValue {
		m["value"] = n.Value
	}

	if n.Line > 0 {
		m["line"] = n.Line
	}

	if len(n.Children) > 0 {
		children := make([]any, len(n.Children))
		for i, c := range n.Children {
			children[i] = c.ToMap()
		}

		m["children"] = children
	}

	return m
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) { return json.Marshal(n.ToMap()) }

// FormatJSON writes n as JSON to w.
func (n *Node) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(n.ToMap(), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(n.ToMap())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes n as YAML to w.
func (n *Node) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent), yaml.IndentSequence(true))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, n.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}
