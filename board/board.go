// Package board holds the static description of every supported board: its
// clocks, console pins and timer settings.
package board

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"omibyte.io/e310/chip"
	"omibyte.io/e310/interrupt"
	"omibyte.io/e310/timer"
	"omibyte.io/e310/uart"
)

//go:embed boards.yaml
var rawBoards []byte

var boards Boards

type Boards []Board

type Board struct {
	Name      string  `yaml:"name"`
	Chip      string  `yaml:"chip"`
	CoreClock chip.Hz `yaml:"coreClock"`
	TLClock   chip.Hz `yaml:"tlClock"`
	UART      UART    `yaml:"uart"`
	Timer     Timer   `yaml:"timer"`
}

type UART struct {
	TX       chip.Pin           `yaml:"tx"`
	RX       chip.Pin           `yaml:"rx"`
	Baud     chip.Bps           `yaml:"baud"`
	Priority interrupt.Priority `yaml:"priority"`
}

type Timer struct {
	Alarms int    `yaml:"alarms"`
	Reload uint64 `yaml:"reload"`
}

func All() Boards {
	return boards
}

// Lookup finds a board by name, ignoring case.
func Lookup(name string) (Board, error) {
	return boards.Find(name)
}

// Chips returns the distinct chips across all boards, sorted.
func Chips() []string {
	set := map[string]struct{}{}
	for _, b := range boards {
		set[b.Chip] = struct{}{}
	}
	chips := maps.Keys(set)
	slices.Sort(chips)
	return chips
}

func (b Boards) Find(name string) (Board, error) {
	i := slices.IndexFunc(b, func(board Board) bool {
		return board.Name == strings.ToLower(name)
	})
	if i < 0 {
		return Board{}, fmt.Errorf("%w: %q", ErrBoardNotFound, name)
	}
	return b[i], nil
}

// Names lists the boards in table order.
func (b Boards) Names() []string {
	names := make([]string, len(b))
	for i, board := range b {
		names[i] = board.Name
	}
	return names
}

func (b Board) Clocks() chip.Clocks {
	return chip.NewClocks(b.CoreClock, b.TLClock)
}

func (b Board) TimerConfig() timer.Config {
	return timer.Config{
		Alarms: b.Timer.Alarms,
		Reload: b.Timer.Reload,
	}
}

// UARTConfig is the console configuration. It is not validated until it is
// handed to uart.New or uart.NewAsync.
func (b Board) UARTConfig() uart.Config {
	return uart.Config{
		TXD:      b.UART.TX,
		RXD:      b.UART.RX,
		Baud:     b.UART.Baud,
		Clocks:   b.Clocks(),
		Priority: b.UART.Priority,
	}
}

func init() {
	var t struct {
		Elements []Board `yaml:"boards"`
	}
	if err := yaml.Unmarshal(rawBoards, &t); err != nil {
		panic(err)
	}

	boards = t.Elements
}
