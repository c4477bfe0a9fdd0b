// Package shell provides the "sheetkit shell" interactive REPL command.
package shell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	shellpkg "github.com/klytics/sheetkit/internal/shell"
	"github.com/klytics/sheetkit/internal/store"
)

// NewCommand creates the "shell" command.
func NewCommand() *cobra.Command {
	var (
		evalCmd string
		sheet   string
		user    string
		record  bool
	)

	cmd := &cobra.Command{
		Use:   "shell [file]",
		Short: "Start an interactive spreadsheet shell",
		Long: `Start a REPL that keeps a spreadsheet in memory and applies each line as
a natural-language command. Builtins: abrir, salvar, mostrar, desfazer,
colunas, historico, sugestoes, template, ajuda, sair.

With the history store enabled and --record set, the session is saved as a
conversation that 'sheetkit serve' exposes under /api/conversations.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			proc, err := a.Processor()
			if err != nil {
				return err
			}
			session, err := shellpkg.NewSession(proc)
			if err != nil {
				return err
			}
			session.Memory = a.Memory()
			if len(args) == 1 {
				t, err := tabular.Load(args[0], sheet)
				if err != nil {
					return err
				}
				session.Table, session.Path = t, args[0]
			}
			if record {
				st, err := a.Store()
				if err != nil {
					return err
				}
				session.Transcript = &transcript{store: st, user: user, file: session.Path, log: a.Log}
			}

			if evalCmd != "" {
				out, err := session.Eval(cmd.Context(), evalCmd)
				if err != nil {
					return err
				}
				fmt.Print(out)
				return nil
			}
			return session.Run(cmd.Context(), os.Stdout)
		},
	}

	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run a single line and exit")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read (xlsx; default first sheet)")
	cmd.Flags().BoolVar(&record, "record", false, "Save the session as a conversation in the history store")
	cmd.Flags().StringVar(&user, "user", "", "User name stored with the conversation")
	return cmd
}

// transcript writes shell exchanges to a store conversation, created on
// the first message.
type transcript struct {
	store *store.Store
	user  string
	file  string
	log   *zap.Logger

	mu sync.Mutex
	id string
}

func (t *transcript) Log(ctx context.Context, role, content string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.id == "" {
		name := "Sessão " + time.Now().Format("2006-01-02 15:04")
		if t.file != "" {
			name += " — " + filepath.Base(t.file)
		}
		c, err := t.store.CreateConversation(ctx, store.Conversation{Name: name, UserName: t.user})
		if err != nil {
			return err
		}
		t.id = c.ID
		t.log.Debug("conversation started", zap.String("id", c.ID))
	}

	_, err := t.store.AddMessage(ctx, store.Message{
		ConversationID: t.id,
		Role:           role,
		Content:        content,
		Type:           "shell",
	})
	return err
}
