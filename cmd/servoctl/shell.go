// cmd/servoctl/shell.go
package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"

	ct "github.com/tamzrod/servo-replicator/internal/controltable"
	"github.com/tamzrod/servo-replicator/internal/register"
)

// pinger is the part of the bus used by the ping command.
type pinger interface {
	Ping(ctx context.Context, id uint8) (model uint16, firmware uint8, err error)
}

// Shell is an interactive register console for one bus.
type Shell struct {
	acc  *register.Accessor
	bus  register.Transport
	ping pinger
	out  io.Writer
}

// NewShell builds a shell writing its output to out.
func NewShell(schema *ct.Schema, bus register.Transport, ping pinger, out io.Writer) *Shell {
	return &Shell{
		acc:  register.NewAccessor(schema, bus),
		bus:  bus,
		ping: ping,
		out:  out,
	}
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "servo> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	s.out = rl.Stdout()
	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		if quit := s.Exec(ctx, line); quit {
			return nil
		}
	}
}

// Exec runs one command line. It reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		s.printHelp()

	case "list", "ls":
		s.cmdList()

	case "read", "r":
		err = s.cmdRead(ctx, args)

	case "write", "w":
		err = s.cmdWrite(ctx, args)

	case "raw":
		err = s.cmdRaw(ctx, args)

	case "scan":
		err = s.cmdScan(ctx, args)

	case "ping", "p":
		err = s.cmdPing(ctx, args)

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Servo Commands:
  Control table:
    list                       - List registers (name@address/type access converter)
    read <reg> <id...>         - Read a register, converted to engineering units
    raw <reg> <id>             - Read a register without conversion
    write <reg> <id> <value>   - Write a register in engineering units
    scan <reg...> <id...>      - Read several registers in one combined read

  Bus:
    ping <id>                  - Show model number and firmware

  Other:
    help                       - Show this help
    quit                       - Exit`)
}

func (s *Shell) cmdList() {
	for _, d := range s.acc.Schema().Descriptors() {
		fmt.Fprintf(s.out, "  %s\n", d)
	}
}

func (s *Shell) cmdRead(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: read <reg> <id...>")
	}
	d, err := s.acc.Schema().Lookup(args[0])
	if err != nil {
		return err
	}
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}

	vals, err := s.acc.ReadMany(ctx, d, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintf(s.out, "  [%d] %s = %s\n", id, d.Name, formatValue(vals[id]))
	}
	return nil
}

func (s *Shell) cmdRaw(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: raw <reg> <id>")
	}
	d, err := s.acc.Schema().Lookup(args[0])
	if err != nil {
		return err
	}
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}

	v, err := s.acc.ReadRaw(ctx, d, ids[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "  [%d] %s = %d (0x%X)\n", ids[0], d.Name, v, v)
	return nil
}

func (s *Shell) cmdWrite(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: write <reg> <id> <value>")
	}
	ids, err := parseIDs(args[1:2])
	if err != nil {
		return err
	}
	value, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", args[2])
	}

	if err := s.acc.WriteNamed(ctx, args[0], ids[0], value); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "  [%d] %s <- %s\n", ids[0], args[0], formatValue(value))
	return nil
}

func (s *Shell) cmdScan(ctx context.Context, args []string) error {
	var (
		names []string
		ids   []register.DeviceID
	)
	for _, a := range args {
		if id, err := parseID(a); err == nil {
			ids = append(ids, id)
			continue
		}
		names = append(names, a)
	}
	if len(names) == 0 || len(ids) == 0 {
		return fmt.Errorf("usage: scan <reg...> <id...>")
	}

	descs := make([]ct.Descriptor, 0, len(names))
	for _, n := range names {
		d, err := s.acc.Schema().Lookup(n)
		if err != nil {
			return err
		}
		descs = append(descs, d)
	}

	spec, err := register.SpanOf(descs...)
	if err != nil {
		return err
	}
	rows, err := register.ReadCombined(ctx, s.bus, spec, ids)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  id\t%s\n", strings.Join(names, "\t"))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, raw := range row {
			cells[j] = strconv.FormatInt(raw, 10)
			if c := descs[j].Codec; c != nil {
				v, err := c.Decode(raw)
				if err != nil {
					cells[j] = fmt.Sprintf("%d (%v)", raw, err)
					continue
				}
				cells[j] = formatValue(v)
			}
		}
		fmt.Fprintf(tw, "  %d\t%s\n", ids[i], strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func (s *Shell) cmdPing(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: ping <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	model, fw, err := s.ping.Ping(ctx, uint8(id))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "  [%d] model=%d firmware=%d\n", id, model, fw)
	return nil
}

// ---- helpers ----

func parseID(s string) (register.DeviceID, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid device id %q", s)
	}
	return register.DeviceID(v), nil
}

func parseIDs(args []string) ([]register.DeviceID, error) {
	ids := make([]register.DeviceID, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
