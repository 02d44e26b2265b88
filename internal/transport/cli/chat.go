package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sandevgo/memobot/pkg/log"
)

const replyInternalError = "抱歉，我这边出了点问题，请稍后再试。"

// Dispatcher routes one utterance to a reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, text string) (string, error)
}

// Chat is a minimal stdin loop for local use. Type /quit to exit.
type Chat struct {
	orch Dispatcher
	in   io.Reader
	out  io.Writer
	done chan struct{}
}

func NewChat(orch Dispatcher) *Chat {
	return &Chat{
		orch: orch,
		in:   os.Stdin,
		out:  os.Stdout,
		done: make(chan struct{}),
	}
}

func (c *Chat) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("starting cli chat")

	scanner := bufio.NewScanner(c.in)
	fmt.Fprint(c.out, "> ")
	for scanner.Scan() {
		select {
		case <-c.done:
			return nil
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit" || line == "/exit":
			return nil
		default:
			reply, err := c.orch.Dispatch(ctx, line)
			if err != nil {
				reply = replyInternalError
			}
			fmt.Fprintln(c.out, reply)
		}
		fmt.Fprint(c.out, "> ")
	}
	return scanner.Err()
}

func (c *Chat) Shutdown(ctx context.Context) error {
	close(c.done)
	return nil
}
