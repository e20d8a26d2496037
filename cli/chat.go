package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fitmate/agent"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Terminal palette.
var (
	colorAssistant = lipgloss.Color("#8ec07c")
	colorAgent     = lipgloss.Color("#fe8019")
	colorError     = lipgloss.Color("#fb4934")
	colorDim       = lipgloss.Color("#928374")
)

type chatStyles struct {
	assistant lipgloss.Style
	agent     lipgloss.Style
	err       lipgloss.Style
	dim       lipgloss.Style
}

func newChatStyles(color bool) chatStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return chatStyles{assistant: plain, agent: plain, err: plain, dim: plain}
	}
	return chatStyles{
		assistant: lipgloss.NewStyle().Foreground(colorAssistant),
		agent:     lipgloss.NewStyle().Foreground(colorAgent).Bold(true),
		err:       lipgloss.NewStyle().Foreground(colorError),
		dim:       lipgloss.NewStyle().Foreground(colorDim),
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// chatSession is one terminal conversation. It tracks the selected agent and
// goal and renders replies to out.
type chatSession struct {
	agent     *agent.Agent
	sessionID string
	agentKey  string
	goal      string
	out       io.Writer
	styles    chatStyles
	// typewriter is the delay between grapheme clusters; zero prints replies
	// at once.
	typewriter time.Duration
}

func newChatSession(a *agent.Agent, out io.Writer, styles chatStyles) *chatSession {
	return &chatSession{
		agent:     a,
		sessionID: uuid.NewString(),
		agentKey:  a.Registry().Default().Key,
		out:       out,
		styles:    styles,
	}
}

func (s *chatSession) prompt() string {
	return fmt.Sprintf("You (%s)> ", s.agentKey)
}

func (s *chatSession) greet() {
	p, err := s.agent.Registry().Get(s.agentKey)
	if err != nil || p.Greeting == "" {
		return
	}
	fmt.Fprintln(s.out, s.styles.assistant.Render(p.Greeting))
	fmt.Fprintln(s.out, s.styles.dim.Render("Type exit to quit, /help for commands"))
}

// handle processes one input line and reports whether the session should end.
func (s *chatSession) handle(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	switch {
	case input == "":
		return false
	case input == "exit" || input == "quit":
		return true
	case strings.HasPrefix(input, "/"):
		s.command(input)
		return false
	}

	reply, err := s.agent.Send(ctx, agent.Request{
		SessionID: s.sessionID,
		AgentKey:  s.agentKey,
		Goal:      s.goal,
		Text:      input,
	})
	if err != nil {
		fmt.Fprintln(s.out, s.styles.err.Render("Error: "+err.Error()))
		return false
	}

	fmt.Fprint(s.out, s.styles.agent.Render(reply.Agent+": "))
	s.write(ctx, reply.Assistant.Content)
	fmt.Fprintln(s.out)
	return false
}

func (s *chatSession) write(ctx context.Context, text string) {
	if s.typewriter <= 0 {
		fmt.Fprint(s.out, s.styles.assistant.Render(text))
		return
	}

	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		fmt.Fprint(s.out, s.styles.assistant.Render(gr.Str()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.typewriter):
		}
	}
}

func (s *chatSession) command(input string) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "agent":
		p, err := s.agent.Registry().Get(arg)
		if arg == "" || err != nil {
			fmt.Fprintln(s.out, s.styles.err.Render(fmt.Sprintf("Unknown agent %q", arg)))
			return
		}
		s.agentKey = p.Key
		s.goal = ""
		fmt.Fprintln(s.out, s.styles.dim.Render("Now talking to "+p.Label))
	case "goal":
		if arg == "" {
			s.goal = ""
			fmt.Fprintln(s.out, s.styles.dim.Render("Goal cleared"))
			return
		}
		p, err := s.agent.Registry().Get(s.agentKey)
		if err != nil {
			return
		}
		goal, ok := p.CanonicalGoal(arg)
		if !ok {
			fmt.Fprintln(s.out, s.styles.err.Render(fmt.Sprintf("Goals for %s: %s", p.Key, strings.Join(p.Goals, ", "))))
			return
		}
		s.goal = goal
		fmt.Fprintln(s.out, s.styles.dim.Render("Goal set to "+goal))
	case "agents":
		for _, p := range s.agent.Registry().List() {
			fmt.Fprintf(s.out, "%s  %s\n", s.styles.agent.Render(p.Key), p.Label)
		}
	default:
		fmt.Fprintln(s.out, s.styles.dim.Render("Commands: /agent <key>, /goal <goal>, /agents, exit"))
	}
}

func newChatCmd() *cobra.Command {
	var agentKey string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with FitMate in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			tty := isTerminal(os.Stdout)
			session := newChatSession(a.agent, cmd.OutOrStdout(), newChatStyles(tty))
			if tty {
				session.typewriter = a.cfg.TypewriterDelay
			}
			if agentKey != "" {
				p, err := a.agent.Registry().Get(agentKey)
				if err != nil {
					return err
				}
				session.agentKey = p.Key
			}
			defer a.agent.EndSession(session.sessionID)

			rl, err := readline.New(session.prompt())
			if err != nil {
				return fmt.Errorf("start readline: %w", err)
			}
			defer rl.Close()

			session.greet()
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}

				if session.handle(ctx, line) {
					return nil
				}
				rl.SetPrompt(session.prompt())
				if ctx.Err() != nil {
					a.logger.Info("Chat interrupted", zap.Error(ctx.Err()))
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&agentKey, "agent", "", "agent to start with (default support)")
	return cmd
}
