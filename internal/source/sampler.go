package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"

	"github.com/0xRadioAc7iv/procstore/internal/record"
)

// Simulator produces synthetic samples: the constant payload 1..11 in A..K,
// a sequence number in L, the sample time in M and the host node id in N.
type Simulator struct {
	node [6]byte
	seq  atomic.Uint32
	now  func() time.Time
}

func NewSimulator() *Simulator {
	s := &Simulator{now: time.Now}
	copy(s.node[:], uuid.NodeID())
	return s
}

func (s *Simulator) Sample(context.Context) (record.Record, error) {
	return record.Record{
		A: 1,
		B: 2,
		C: 3,
		D: 4,
		E: 5,
		F: 6,
		G: 7,
		H: 8,
		I: 9,
		J: 10,
		K: 11,
		L: s.seq.Add(1),
		M: uint64(s.now().UnixNano()),
		N: s.node,
	}, nil
}

// CommandSampler runs an external command for every sample and parses
// record.NumFields whitespace-separated values from its standard output.
type CommandSampler struct {
	name string
	args []string
}

var ErrEmptyCommand = errors.New("empty sampler command")

// NewCommandSampler splits cmdline with shell quoting rules. The command is
// executed directly, not through a shell.
func NewCommandSampler(cmdline string) (*CommandSampler, error) {
	words, err := shellquote.Split(cmdline)
	if err != nil {
		return nil, fmt.Errorf("parse sampler command: %w", err)
	}
	if len(words) == 0 {
		return nil, ErrEmptyCommand
	}

	return &CommandSampler{name: words[0], args: words[1:]}, nil
}

func (c *CommandSampler) Sample(ctx context.Context) (record.Record, error) {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return record.Record{}, fmt.Errorf("run %s: %w: %s", c.name, err, msg)
		}
		return record.Record{}, fmt.Errorf("run %s: %w", c.name, err)
	}

	rec, err := record.ParseFields(strings.Fields(string(out)))
	if err != nil {
		return record.Record{}, fmt.Errorf("parse output of %s: %w", c.name, err)
	}

	return rec, nil
}

func (c *CommandSampler) String() string {
	return shellquote.Join(append([]string{c.name}, c.args...)...)
}
