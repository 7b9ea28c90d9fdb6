package assistant

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/fitbuddy/internal/advisor"
	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/ledger"
	"github.com/julianstephens/fitbuddy/internal/logger"
	"github.com/julianstephens/fitbuddy/internal/models"
)

var (
	// input and out are the interactive streams. Replaced in tests.
	input io.Reader = os.Stdin
	out   io.Writer = os.Stdout

	// newAdvisorClient is replaced in tests.
	newAdvisorClient = func(ctx *cli.Context) (advisor.Client, error) {
		client, err := ctx.GeminiClient()
		if err != nil {
			return nil, err
		}
		return client, nil
	}
)

type ChatCmd struct {
	Question []string `arg:"" optional:"" help:"Question to ask. Starts an interactive chat when omitted."`
	Date     string   `short:"d" help:"Day whose summary frames the question (YYYY-MM-DD, 'today', 'yesterday' or an offset)."`
}

func (c *ChatCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Date)
	if err != nil {
		return err
	}
	l, err := ctx.OpenLedger()
	if err != nil {
		return err
	}

	client, err := newAdvisorClient(ctx)
	if err != nil {
		// Missing credentials are reported per answer via the fallback.
		logger.Warn("advisor unavailable", "error", err)
		client = nil
	}
	chat := advisor.NewChat(client)

	if q := strings.TrimSpace(strings.Join(c.Question, " ")); q != "" {
		ask(chat, l, day, q)
		return nil
	}

	fmt.Fprintln(out, "Ask about your nutrition. Type 'exit' or press Ctrl+D to leave.")
	scanner := bufio.NewScanner(input)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(q) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		ask(chat, l, day, q)
	}
}

// ask prints the answer to q. Failures show the fallback reply; the chat
// stays usable.
func ask(chat *advisor.Chat, l *ledger.Ledger, day time.Time, q string) {
	fmt.Fprintln(out, "Thinking...")
	reply, err := chat.Ask(context.Background(), q, l.GetLog(day), l.Totals(day))
	if err != nil {
		logger.Warn("advice failed", "error", err)
		if errors.KindOf(err) == errors.KindConfiguration {
			fmt.Fprintf(out, "⚠ %s\n", errors.UserMessage(err, constants.StatusMissingKey))
		}
	}
	printReply(reply)
}

func printReply(reply models.ChatMessage) {
	fmt.Fprintln(out, reply.Text)
	var sources []models.Citation
	for _, c := range reply.Citations {
		if c.Valid() {
			sources = append(sources, c)
		}
	}
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(out, "\nSources:")
	for i, c := range sources {
		fmt.Fprintf(out, "  [%d] %s  %s\n", i+1, c.Label(), c.Web.URI)
	}
}
