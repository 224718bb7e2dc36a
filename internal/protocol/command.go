// Package protocol implements the line-oriented command protocol: one command
// per line, space separated integer arguments, one response line per command.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmpty is returned by Parse for blank lines.
	ErrEmpty = errors.New("protocol: empty line")

	// ErrUnknownCommand is returned by Parse for unrecognised command names.
	ErrUnknownCommand = errors.New("protocol: unknown command")

	// ErrMalformed is returned by Parse for missing or non-integer arguments.
	ErrMalformed = errors.New("protocol: malformed arguments")
)

// Op identifies a command.
type Op uint8

const (
	OpAddStation Op = iota + 1
	OpDemolishStation
	OpAddCar
	OpScrapCar
	OpPlanPath
)

var opNames = map[Op]string{
	OpAddStation:      "add-station",
	OpDemolishStation: "demolish-station",
	OpAddCar:          "add-car",
	OpScrapCar:        "scrap-car",
	OpPlanPath:        "plan-path",
}

// ops maps every accepted spelling, including the Italian originals.
var ops = map[string]Op{
	"add-station":        OpAddStation,
	"aggiungi-stazione":  OpAddStation,
	"demolish-station":   OpDemolishStation,
	"demolisci-stazione": OpDemolishStation,
	"add-car":            OpAddCar,
	"aggiungi-auto":      OpAddCar,
	"scrap-car":          OpScrapCar,
	"rottama-auto":       OpScrapCar,
	"plan-path":          OpPlanPath,
	"pianifica-percorso": OpPlanPath,
}

// minArgs is the number of leading arguments each command requires.
var minArgs = map[Op]int{
	OpAddStation:      2,
	OpDemolishStation: 1,
	OpAddCar:          2,
	OpScrapCar:        2,
	OpPlanPath:        2,
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Command is a parsed command line.
type Command struct {
	Op   Op
	Args []int
}

// Autonomies returns the initial cars of an add-station command: up to the
// declared count of the autonomies that follow it.
func (c Command) Autonomies() []int {
	if c.Op != OpAddStation || len(c.Args) < 2 {
		return nil
	}
	n := max(c.Args[1], 0)
	rest := c.Args[2:]
	if n < len(rest) {
		rest = rest[:n]
	}
	return rest
}

// Parse tokenizes line into a Command. Arguments beyond those a command uses
// are ignored.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}
	op, ok := ops[fields[0]]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
	if len(fields)-1 < minArgs[op] {
		return Command{}, fmt.Errorf("%w: %s needs %d arguments, got %d", ErrMalformed, op, minArgs[op], len(fields)-1)
	}

	args := make([]int, len(fields)-1)
	for i, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %s argument %d: %w", ErrMalformed, op, i+1, err)
		}
		args[i] = v
	}
	return Command{Op: op, Args: args}, nil
}
