// Command tcctl converts, compares and runs broadcast timecodes from the
// terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/zsiec/timecode/pkg/timecode"
	"github.com/zsiec/timecode/pkg/version"
)

const usage = `Usage: tcctl <command> [flags] [args]

Commands:
  convert <timecode|frames>   show the components of a timecode
  add <a> <b>                 add two timecodes
  sub <a> <b>                 subtract b from a
  compare <a> <b>             order and equality of two timecodes
  sort <tc>...                sort and de-duplicate timecodes
  clock [start]               run a live timecode display
  version                     print version information

Flags:
  -rate float   frame rate (default 24)
  -drop         drop-frame notation
`

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes a command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fps := fs.Float64("rate", timecode.DefaultRate, "frame rate")
	drop := fs.Bool("drop", false, "drop-frame notation")
	if err := fs.Parse(rest); err != nil {
		return 2
	}
	c := command{fps: *fps, drop: *drop, args: fs.Args(), out: stdout}

	var err error
	switch cmd {
	case "convert":
		err = c.convert()
	case "add":
		err = c.arithmetic("+", timecode.Timecode.Add)
	case "sub":
		err = c.arithmetic("-", timecode.Timecode.Sub)
	case "compare":
		err = c.compare()
	case "sort":
		err = c.sort()
	case "clock":
		err = c.clock()
	case "version":
		fmt.Fprintln(stdout, version.GetInfo().String())
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render("error: "+err.Error()))
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, usage)
			return 2
		}
		return 1
	}
	return 0
}

type command struct {
	fps  float64
	drop bool
	args []string
	out  io.Writer
}

func (c command) want(n int) error {
	if len(c.args) != n {
		return fmt.Errorf("%w: expected %d argument(s), got %d", errUsage, n, len(c.args))
	}
	return nil
}

func (c command) parse(s string) (timecode.Timecode, error) {
	return timecode.Parse(s, c.fps, c.drop)
}

func (c command) convert() error {
	if err := c.want(1); err != nil {
		return err
	}
	tc, err := c.parse(c.args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, renderTable(tc))
	return nil
}

func (c command) arithmetic(symbol string, fn func(timecode.Timecode, timecode.Timecode) (timecode.Timecode, error)) error {
	if err := c.want(2); err != nil {
		return err
	}
	a, err := c.parse(c.args[0])
	if err != nil {
		return err
	}
	b, err := c.parse(c.args[1])
	if err != nil {
		return err
	}
	result, err := fn(a, b)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s %s = %s\n", a, symbol, b, titleStyle.Render(result.String()))
	return nil
}

func (c command) compare() error {
	if err := c.want(2); err != nil {
		return err
	}
	a, err := c.parse(c.args[0])
	if err != nil {
		return err
	}
	b, err := c.parse(c.args[1])
	if err != nil {
		return err
	}

	rel := "same as"
	switch {
	case a.Before(b):
		rel = "before"
	case a.After(b):
		rel = "after"
	}
	fmt.Fprintf(c.out, "%s is %s %s\n", a, rel, b)

	if eq, err := a.Equal(b); err != nil {
		fmt.Fprintln(c.out, warnStyle.Render(err.Error()))
	} else {
		fmt.Fprintln(c.out, mutedStyle.Render("equal: "+strconv.FormatBool(eq)))
	}
	return nil
}

func (c command) sort() error {
	if len(c.args) == 0 {
		return fmt.Errorf("%w: expected at least one timecode", errUsage)
	}
	set := timecode.NewSet()
	for _, arg := range c.args {
		tc, err := c.parse(arg)
		if err != nil {
			return err
		}
		set.Insert(tc)
	}
	fmt.Fprintln(c.out, renderTable(set.Values()...))
	return nil
}

func (c command) clock() error {
	if len(c.args) > 1 {
		return fmt.Errorf("%w: expected at most one start timecode", errUsage)
	}
	start := "0"
	if len(c.args) == 1 {
		start = c.args[0]
	}
	tc, err := c.parse(start)
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(newClockModel(tc, c.fps)).Run()
	return err
}

// renderTable lists timecodes with their components.
func renderTable(tcs ...timecode.Timecode) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(border)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("TIMECODE", "FRAME", "RATE", "DROP", "HH", "MM", "SS", "FF")

	for _, tc := range tcs {
		t.Row(
			tc.String(),
			strconv.FormatInt(tc.FrameNumber(), 10),
			strconv.Itoa(tc.Rate()),
			strconv.FormatBool(tc.DropFrame()),
			strconv.FormatInt(tc.Hours(), 10),
			strconv.FormatInt(tc.Minutes(), 10),
			strconv.FormatInt(tc.Seconds(), 10),
			strconv.FormatInt(tc.Frames(), 10),
		)
	}
	return t.String()
}
