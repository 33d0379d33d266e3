package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/loreleva/Bbo-functions/catalog"
	"github.com/loreleva/Bbo-functions/cli/cmd/repl"
	"github.com/loreleva/Bbo-functions/lang/eval"
	"github.com/loreleva/Bbo-functions/log"
)

// Info lists the catalog functions or describes one of them.
type Info struct {
	Name      string `arg:"" help:"Function name; all functions are listed if omitted" optional:""`
	Dimension int    `default:"2" help:"Dimension used for the minimum of variable-dimension functions" short:"d"`
}

// Run executes the info command.
func (i *Info) Run(ctx context.Context, out io.Writer) error {
	c, err := loadCatalog(ctx)
	if err != nil {
		return err
	}

	if i.Name != "" {
		s := repl.NewSession(make([]float64, i.Dimension), c, log.Default())

		info, err := s.Describe(i.Name)
		if err != nil {
			return err
		}

		_, err = fmt.Fprint(out, info)

		return err
	}

	_, err = fmt.Fprintln(out, i.table(c))

	return err
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func (i *Info) table(c *catalog.Catalog) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "DIMENSION", "MINIMUM", "DESCRIPTION").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	for name, f := range c.All() {
		dim := "any"
		if d, ok := f.Dimension(); ok {
			dim = strconv.Itoa(d)
		}

		minimum := "unknown"
		if y, err := f.MinimumValue(i.Dimension); err == nil {
			minimum = eval.ScalarValue(y).String()
		}

		t.Row(name, dim, minimum, f.Description())
	}

	return t.String()
}
