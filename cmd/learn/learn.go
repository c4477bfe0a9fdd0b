// Package learn provides the "sheetkit learn" commands for the
// conversational learning loop.
package learn

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/learning"
	"github.com/klytics/sheetkit/internal/output"
)

// NewCommand creates the "learn" command with its subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Chat with the learning assistant and rate its answers",
		Long: `The learning assistant answers conversational messages and remembers the
answers it gave. Ratings raise or lower its confidence in a learned answer.

Learned data lives in the history store; with the store disabled it only
lasts for the current command.`,
	}

	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newFeedbackCmd())
	cmd.AddCommand(newStatsCmd())
	return cmd
}

func newChatCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "chat <message...>",
		Short: "Send one message to the learning assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			reply, err := learning.NewResponder(a.Learning()).Respond(cmd.Context(), strings.Join(args, " "), user)
			if err != nil {
				return err
			}
			if a.JSON {
				return a.Out.WriteJSON(reply)
			}
			a.Out.WriteLn(reply.Text)
			label := "nova resposta"
			if reply.Learned {
				label = "resposta aprendida"
			}
			a.Out.Dim(fmt.Sprintf("[%s · confiança %.2f · %s]", reply.Topic, reply.Confidence, label))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Name to greet the user by")
	return cmd
}

func newFeedbackCmd() *cobra.Command {
	var (
		conversation string
		correction   string
	)

	cmd := &cobra.Command{
		Use:   "feedback <positive|negative|neutral> <message> <response>",
		Short: "Rate a response the assistant gave",
		Long: `Rates the response given to a message. A positive rating raises the
confidence of the learned answer, a negative one lowers it.

Example:
  sheetkit learn feedback positive "oi" "Olá! Como posso ajudar?"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rating := learning.Rating(args[0])
			if !rating.Valid() {
				return output.UserErrorf("invalid rating %q — use positive, negative or neutral", args[0])
			}
			err = a.Learning().AddFeedback(cmd.Context(), learning.Feedback{
				ConversationID: conversation,
				Input:          args[1],
				Response:       args[2],
				Rating:         rating,
				Correction:     correction,
			})
			if err != nil {
				return err
			}
			if a.JSON {
				return a.Out.WriteJSON(map[string]any{"success": true, "feedback": rating})
			}
			a.Out.Success("Feedback registrado com sucesso")
			return nil
		},
	}

	cmd.Flags().StringVar(&conversation, "conversation", "", "Conversation the exchange belongs to")
	cmd.Flags().StringVar(&correction, "correction", "", "The answer you expected")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the assistant has learned",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.Learning().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if a.JSON {
				return a.Out.WriteJSON(st)
			}
			a.Out.Heading("Aprendizado")
			a.Out.WriteLn(fmt.Sprintf("  Interações:   %d (%.0f%% com sucesso)", st.Interactions, st.SuccessRate*100))
			a.Out.WriteLn(fmt.Sprintf("  Padrões:      %d", st.Patterns))
			a.Out.WriteLn(fmt.Sprintf("  Vocabulário:  %d palavras", st.VocabularySize))
			a.Out.WriteLn(fmt.Sprintf("  Feedbacks:    %d", st.Feedback))
			if len(st.TopWords) > 0 {
				words := make([]string, len(st.TopWords))
				for i, w := range st.TopWords {
					words[i] = fmt.Sprintf("%s (%d)", w.Word, w.Frequency)
				}
				a.Out.Dim("  Mais usadas: " + strings.Join(words, ", "))
			}
			return nil
		},
	}
}
