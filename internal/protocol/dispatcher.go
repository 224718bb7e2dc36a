package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Kopyshevskiy/highway-path-planner/internal/arena"
	"github.com/Kopyshevskiy/highway-path-planner/internal/metrics"
	"github.com/Kopyshevskiy/highway-path-planner/internal/planner"
	"github.com/Kopyshevskiy/highway-path-planner/internal/station"
)

// Responses, one per line.
const (
	Added         = "aggiunta"
	NotAdded      = "non aggiunta"
	Demolished    = "demolita"
	NotDemolished = "non demolita"
	Scrapped      = "rottamata"
	NotScrapped   = "non rottamata"
	NoPath        = "nessun percorso"
)

// Outcome labels reported to metrics.
const (
	outcomeOK       = "ok"
	outcomeExists   = "exists"
	outcomeNotFound = "not_found"
	outcomeNoPath   = "no_path"
)

// maxLine bounds a single input line. An add-station line carries one token
// per initial car.
const maxLine = 16 << 20

// ErrVerify is returned when a structural check fails after a command.
var ErrVerify = errors.New("protocol: verification failed")

// Options configures a Dispatcher.
type Options struct {
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Verify validates the registry after every mutating command.
	Verify bool

	// Unbuffered flushes output after every response.
	Unbuffered bool
}

// Dispatcher executes commands against one registry. Not safe for
// concurrent use.
type Dispatcher struct {
	reg     *station.Registry
	planner *planner.Planner
	metrics *metrics.Metrics
	log     *slog.Logger
	opts    Options
}

// NewDispatcher binds a registry and planner.
func NewDispatcher(reg *station.Registry, p *planner.Planner, opts Options) *Dispatcher {
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		reg:     reg,
		planner: p,
		metrics: opts.Metrics,
		log:     opts.Logger,
		opts:    opts,
	}
}

// Execute runs cmd and returns its response line without the newline. When
// the registry fails verification after the command, the response is returned
// together with an error wrapping ErrVerify.
func (d *Dispatcher) Execute(cmd Command) (string, error) {
	var (
		resp     string
		outcome  string
		mutating bool
	)

	switch cmd.Op {
	case OpAddStation:
		err := d.reg.AddStation(cmd.Args[0], cmd.Autonomies())
		resp, outcome = result(err, Added, NotAdded)
		mutating = err == nil
	case OpDemolishStation:
		err := d.reg.RemoveStation(cmd.Args[0])
		resp, outcome = result(err, Demolished, NotDemolished)
		mutating = err == nil
	case OpAddCar:
		err := d.reg.AddCar(cmd.Args[0], cmd.Args[1])
		resp, outcome = result(err, Added, NotAdded)
		mutating = err == nil
	case OpScrapCar:
		err := d.reg.RemoveCar(cmd.Args[0], cmd.Args[1])
		resp, outcome = result(err, Scrapped, NotScrapped)
		mutating = err == nil
	case OpPlanPath:
		path, err := d.planner.Plan(d.reg, cmd.Args[0], cmd.Args[1])
		if err != nil {
			d.log.Debug("no path", "from", cmd.Args[0], "to", cmd.Args[1], "error", err)
			resp, outcome = NoPath, outcomeNoPath
			break
		}
		resp, outcome = formatPath(path), outcomeOK
		d.metrics.ObservePath(len(path))
	default:
		return "", fmt.Errorf("protocol: cannot execute %s", cmd.Op)
	}

	d.metrics.ObserveCommand(cmd.Op.String(), outcome)
	d.log.Debug("command", "op", cmd.Op.String(), "args", len(cmd.Args), "outcome", outcome)

	if mutating {
		d.metrics.SetSize(d.reg.Len(), d.reg.Cars())
		if d.opts.Verify {
			if err := d.reg.Validate(); err != nil {
				d.log.Error("registry check failed", "op", cmd.Op.String(), "error", err)
				return resp, fmt.Errorf("%w after %s: %w", ErrVerify, cmd.Op, err)
			}
		}
	}
	return resp, nil
}

// Run reads commands from in until EOF or ctx is done and writes one
// response line per executed command to out. Cancellation is noticed even
// while a read is blocked; the reader goroutine then exits at its next line
// or when in is closed. Output written before a failure is flushed, including
// the response of a command that failed verification. Arena exhaustion is
// returned as an error wrapping arena.ErrCapacityExceeded.
func (d *Dispatcher) Run(ctx context.Context, in io.Reader, out io.Writer) (err error) {
	w := bufio.NewWriter(out)
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok || !errors.Is(perr, arena.ErrCapacityExceeded) {
				panic(r)
			}
			err = perr
		}
		if ferr := w.Flush(); err == nil {
			err = ferr
		}
	}()

	lines, scanErr, stop := scanLines(in)
	defer close(stop)

	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			return <-scanErr
		}
		lineNo++

		cmd, perr := Parse(line)
		switch {
		case errors.Is(perr, ErrEmpty):
			continue
		case errors.Is(perr, ErrUnknownCommand):
			d.log.Debug("skipping unknown command", "line", lineNo, "error", perr)
			continue
		case perr != nil:
			d.log.Warn("skipping malformed command", "line", lineNo, "error", perr)
			continue
		}

		resp, xerr := d.Execute(cmd)
		if resp != "" {
			if err := d.write(w, resp); err != nil {
				return err
			}
		}
		if xerr != nil {
			return fmt.Errorf("line %d: %w", lineNo, xerr)
		}
	}
}

func (d *Dispatcher) write(w *bufio.Writer, resp string) error {
	if _, err := w.WriteString(resp); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	if d.opts.Unbuffered {
		return w.Flush()
	}
	return nil
}

// scanLines reads in on its own goroutine. lines is closed at EOF or on a
// read error, after the error (nil at EOF) has been sent on errc. Closing
// stop makes the goroutine drop its pending line and exit.
func scanLines(in io.Reader) (lines <-chan string, errc <-chan error, stop chan<- struct{}) {
	out := make(chan string)
	errs := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(out)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64<<10), maxLine)
		for sc.Scan() {
			select {
			case out <- sc.Text():
			case <-done:
				return
			}
		}
		errs <- sc.Err()
	}()
	return out, errs, done
}

func result(err error, ok, failed string) (string, string) {
	switch {
	case err == nil:
		return ok, outcomeOK
	case errors.Is(err, station.ErrExists):
		return failed, outcomeExists
	default:
		return failed, outcomeNotFound
	}
}

func formatPath(path []int) string {
	var b strings.Builder
	for i, d := range path {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(d))
	}
	return b.String()
}
