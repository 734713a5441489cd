package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bbernstein/busschema/internal/board"
)

const help = `commands:
  <id>                 pick the element shown as [id]
  / <text>             search stops (also: search <text>)
  nearby <lat> <lon>   search stops around a coordinate
  *                    add or remove the current stop as favorite
  r                    refresh departures now
  q                    quit`

// resolver maps the ids drawn on screen to targets.
type resolver interface {
	Resolve(id string) (board.Target, bool)
}

type session struct {
	controller *board.Controller
	targets    resolver
	out        io.Writer
}

func newSession(controller *board.Controller, targets resolver, out io.Writer) *session {
	return &session{controller: controller, targets: targets, out: out}
}

// run reads commands line by line until quit, EOF or ctx is done.
func (s *session) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case line := <-lines:
			if s.handle(ctx, line) {
				return nil
			}
		}
	}
}

// handle runs one command and reports whether the session should end.
func (s *session) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(command) {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "?", "help":
		fmt.Fprintln(s.out, help)
	case "r", "refresh":
		s.controller.FetchDepartures(ctx)
	case "*":
		s.controller.AddFavorite()
	case "/", "search":
		s.controller.SearchStops(rest)
	case "nearby":
		lat, lon, err := parseCoordinates(rest)
		if err != nil {
			fmt.Fprintln(s.out, err)
			return false
		}
		s.controller.SearchNearby(ctx, lat, lon)
	default:
		if strings.HasPrefix(command, "/") {
			s.controller.SearchStops(strings.TrimSpace(strings.TrimPrefix(line, "/")))
			return false
		}
		target, ok := s.targets.Resolve(command)
		if !ok {
			fmt.Fprintf(s.out, "unknown command %q, type ? for help\n", command)
			return false
		}
		s.controller.Dispatch(ctx, target)
	}
	return false
}

func parseCoordinates(text string) (float64, float64, error) {
	fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("usage: nearby <lat> <lon>")
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", fields[0])
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", fields[1])
	}
	return lat, lon, nil
}
