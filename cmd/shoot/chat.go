package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/yourorg/shoot/internal/apispec"
	"github.com/yourorg/shoot/internal/chat"
	"github.com/yourorg/shoot/internal/config"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var specID, conversationID string
	cmd := &cobra.Command{Use: "chat", Short: "Talk to the assistant in the terminal", RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(opts)
		if err != nil {
			return err
		}
		defer e.Close()

		im := &apispec.Importer{
			Store:   e.store,
			Fetcher: &apispec.Fetcher{Timeout: e.cfg.Fetch.Timeout, Logger: e.logger},
			Logger:  e.logger,
		}
		assistant := chat.New(e.store, im, e.completer(), e.logger)

		rlCfg := &readline.Config{
			Prompt:          "shoot> ",
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		}
		if dir, err := config.DefaultDir(); err == nil {
			rlCfg.HistoryFile = filepath.Join(dir, "chat_history")
		}
		rl, err := readline.NewEx(rlCfg)
		if err != nil {
			return err
		}
		defer rl.Close()

		out := rl.Stdout()
		if !e.cfg.LLM.Configured() {
			fmt.Fprintln(out, "No API key configured. AI features will use fallbacks.")
		}
		fmt.Fprintln(out, `Type "help" for ideas, "exit" to quit.`)

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
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				return nil
			}

			reply, err := assistant.Send(cmd.Context(), chat.SendRequest{
				Message:        line,
				ConversationID: conversationID,
				SpecID:         specID,
			})
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			conversationID = reply.ConversationID
			fmt.Fprintln(out, reply.Message)
			for _, s := range reply.Suggestions {
				fmt.Fprintln(out, "  >", s)
			}
		}
	}}
	cmd.Flags().StringVar(&specID, "spec", "", "spec id to start with")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "resume a conversation")
	return cmd
}
