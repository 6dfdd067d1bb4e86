package usecase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownCommand = errors.New("unknown command")

type CommandType int

const (
	CmdPlay CommandType = iota
	CmdPause
	CmdTogglePlay
	CmdStepForward
	CmdStepBackward
	CmdSeekForward
	CmdSeekBackward
	CmdEventStart
	CmdEventEnd
	CmdUncertainStart
	CmdUncertainEnd
	CmdDiscardEvent
	CmdDiscardUncertain
	CmdPrevEvent
	CmdNextEvent
	CmdPrevUncertain
	CmdNextUncertain
	CmdSavePosition
	CmdReturnPosition
	CmdHelp
	CmdQuit
	CmdSkipRate
	CmdSeekInterval
)

// Command is one reviewer input. Value is only meaningful for the numeric
// settings.
type Command struct {
	Type  CommandType
	Value int
}

type binding struct {
	key  string
	name string
	cmd  CommandType
	help string
}

var bindings = []binding{
	{"space", "toggle", CmdTogglePlay, "toggle play/pause (an empty line works too)"},
	{"", "play", CmdPlay, "play really fast"},
	{"p", "pause", CmdPause, "pause immediately"},
	{"l", "step-forward", CmdStepForward, "step forward 1 frame"},
	{"h", "step-back", CmdStepBackward, "step back 1 frame"},
	{"n", "seek-forward", CmdSeekForward, "fast forward by the seek interval"},
	{"b", "seek-back", CmdSeekBackward, "fast backward by the seek interval"},
	{"s", "event-start", CmdEventStart, "mark the current frame as the start of an event"},
	{"d", "event-end", CmdEventEnd, "mark the current frame as the end of an event"},
	{"a", "uncertain-start", CmdUncertainStart, "mark the current frame as the start of an uncertain interval"},
	{"f", "uncertain-end", CmdUncertainEnd, "mark the current frame as the end of an uncertain interval"},
	{"x", "discard-event", CmdDiscardEvent, "discard the open event start"},
	{"z", "discard-uncertain", CmdDiscardUncertain, "discard the open uncertain start"},
	{"[", "prev-event", CmdPrevEvent, "go to the previous event"},
	{"]", "next-event", CmdNextEvent, "go to the next event"},
	{"{", "prev-uncertain", CmdPrevUncertain, "go to the previous uncertain interval"},
	{"}", "next-uncertain", CmdNextUncertain, "go to the next uncertain interval"},
	{"m", "save", CmdSavePosition, "save the current position"},
	{"r", "return", CmdReturnPosition, "return to the saved position"},
	{"?", "help", CmdHelp, "show this help"},
	{"q", "quit", CmdQuit, "quit and output all intervals"},
}

var commandsByWord = func() map[string]CommandType {
	m := make(map[string]CommandType, 2*len(bindings))
	for _, b := range bindings {
		if b.key != "" {
			m[b.key] = b.cmd
		}
		m[b.name] = b.cmd
	}
	return m
}()

// ParseCommand maps one input line to a command. An empty line toggles play.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Type: CmdTogglePlay}, nil
	}

	word := strings.ToLower(fields[0])
	switch word {
	case "skip", "seek":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%s needs one numeric argument", word)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Command{}, fmt.Errorf("parse %s value %q: %w", word, fields[1], err)
		}
		if word == "skip" {
			return Command{Type: CmdSkipRate, Value: n}, nil
		}
		return Command{Type: CmdSeekInterval, Value: n}, nil
	}

	if len(fields) > 1 {
		return Command{}, fmt.Errorf("%q: %w", line, ErrUnknownCommand)
	}
	cmd, ok := commandsByWord[word]
	if !ok {
		return Command{}, fmt.Errorf("%q: %w", line, ErrUnknownCommand)
	}
	return Command{Type: cmd}, nil
}

// Controls is the help text listing every command.
func Controls() string {
	var sb strings.Builder
	sb.WriteString("Commands (type the key or the name, then Enter)\n")
	for _, b := range bindings {
		key := b.key
		if key == "" {
			key = "-"
		}
		fmt.Fprintf(&sb, "  %-6s %-18s %s\n", key, b.name, b.help)
	}
	sb.WriteString("  skip N                    set the skip rate (frames skipped per 30 played, 0-900)\n")
	sb.WriteString("  seek N                    set the seek interval in frames (0-900)\n")
	return sb.String()
}
