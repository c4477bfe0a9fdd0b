// Package shell provides the interactive sheetkit REPL: a chat over one
// loaded spreadsheet.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/intent"
	"github.com/klytics/sheetkit/internal/learning"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/templates"
)

// Processor runs natural-language commands; *assistant.Processor
// satisfies it.
type Processor interface {
	Process(ctx context.Context, command string, t *table.Table) (*assistant.Response, error)
}

// Transcript receives every exchange of the session. The store-backed
// implementation lives in cmd/shell.
type Transcript interface {
	Log(ctx context.Context, role, content string) error
}

// MaxUndo bounds the undo stack.
const MaxUndo = 20

// errExit is returned by Eval for the exit builtins.
var errExit = errors.New("exit")

// Session manages an interactive shell session.
type Session struct {
	Processor   Processor
	Transcript  Transcript
	Memory      *learning.Context
	Table       *table.Table
	Path        string
	History     []string
	HistoryFile string
	StartTime   time.Time
	PreviewRows int

	undo []*table.Table
}

// builtins are the shell's own commands, each with its Portuguese alias.
var builtins = []string{
	"help", "ajuda", "exit", "sair", "quit",
	"load", "abrir", "save", "salvar", "show", "mostrar",
	"undo", "desfazer", "colunas", "history", "historico",
	"sugestoes", "template",
}

// NewSession creates a session that sends commands to proc.
func NewSession(proc Processor) (*Session, error) {
	if proc == nil {
		return nil, fmt.Errorf("shell needs a command processor")
	}
	home, _ := os.UserHomeDir()
	histFile := filepath.Join(home, ".sheetkit", "shell_history")
	os.MkdirAll(filepath.Dir(histFile), 0o755)

	return &Session{
		Processor:   proc,
		HistoryFile: histFile,
		StartTime:   time.Now(),
		PreviewRows: 10,
	}, nil
}

// Run starts the REPL loop. Blocks until 'sair' or Ctrl+D.
func (s *Session) Run(ctx context.Context, stdout io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sheetkit> ",
		HistoryFile:     s.HistoryFile,
		AutoComplete:    readline.NewPrefixCompleter(s.buildCompleter()...),
		InterruptPrompt: "^C",
		EOFPrompt:       "sair",
		Stdout:          stdout,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	w := output.NewWriterTo(stdout, output.FormatText)
	w.Heading("sheetkit — assistente de planilhas")
	fmt.Fprintln(stdout, "Digite 'ajuda' para ver os comandos, 'sair' para encerrar.")
	if s.Path != "" {
		fmt.Fprintf(stdout, "Planilha carregada: %s (%d linhas)\n", s.Path, s.Table.Len())
	}
	fmt.Fprintln(stdout)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		out, err := s.Eval(ctx, line)
		if errors.Is(err, errExit) {
			break
		}
		if err != nil {
			w.Failure(err.Error())
			continue
		}
		if out != "" {
			fmt.Fprint(stdout, out)
			if !strings.HasSuffix(out, "\n") {
				fmt.Fprintln(stdout)
			}
		}
	}

	fmt.Fprintf(stdout, "\nSessão encerrada. %d comandos em %s.\n",
		len(s.History), formatDuration(time.Since(s.StartTime)))
	return nil
}

// history lists the session's lines and, with a Memory attached, the
// commands that worked for each intent.
func (s *Session) history() string {
	var b strings.Builder
	for i, cmd := range s.History {
		fmt.Fprintf(&b, "  %d  %s\n", i+1, cmd)
	}
	if s.Memory == nil {
		return b.String()
	}
	patterns := s.Memory.Patterns()
	if len(patterns) == 0 {
		return b.String()
	}
	intents := make([]string, 0, len(patterns))
	for in := range patterns {
		intents = append(intents, in)
	}
	sort.Strings(intents)
	b.WriteString("\nComandos que funcionaram:\n")
	for _, in := range intents {
		fmt.Fprintf(&b, "  %s: %s\n", in, strings.Join(patterns[in], "; "))
	}
	return b.String()
}

// Eval runs one line and returns what the shell would print.
func (s *Session) Eval(ctx context.Context, line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "exit", "sair", "quit":
		return "", errExit
	case "help", "ajuda":
		return helpText, nil
	case "history", "historico":
		return s.history(), nil
	}

	s.History = append(s.History, line)

	switch name {
	case "load", "abrir":
		return s.load(args)
	case "save", "salvar":
		return s.save(args)
	case "show", "mostrar":
		return s.show(args)
	case "undo", "desfazer":
		return s.popUndo()
	case "colunas":
		if s.Table.Width() == 0 {
			return "", errNoTable
		}
		return strings.Join(s.Table.Columns(), ", ") + "\n", nil
	case "sugestoes":
		return s.suggestions()
	case "template":
		return s.applyTemplate(args)
	}
	return s.command(ctx, line)
}

var errNoTable = errors.New("nenhuma planilha carregada — use 'abrir <arquivo>'")

func (s *Session) load(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("uso: abrir <arquivo> [aba]")
	}
	sheet := ""
	if len(args) > 1 {
		sheet = args[1]
	}
	t, err := tabular.Load(args[0], sheet)
	if err != nil {
		return "", err
	}
	s.Table, s.Path, s.undo = t, args[0], nil
	return fmt.Sprintf("Carregado %s: %d linhas, %d colunas\n", args[0], t.Len(), t.Width()), nil
}

func (s *Session) save(args []string) (string, error) {
	if s.Table.Width() == 0 {
		return "", errNoTable
	}
	dest := s.Path
	if len(args) > 0 {
		dest = args[0]
	}
	if dest == "" {
		return "", fmt.Errorf("uso: salvar <arquivo>")
	}
	if err := tabular.Save(dest, s.Table); err != nil {
		return "", err
	}
	return fmt.Sprintf("Salvo em %s\n", dest), nil
}

func (s *Session) show(args []string) (string, error) {
	if s.Table.Width() == 0 {
		return "", errNoTable
	}
	limit := s.PreviewRows
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return "", fmt.Errorf("número de linhas inválido: %s", args[0])
		}
		limit = n
	}
	return s.render(limit)
}

func (s *Session) render(limit int) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterTo(&buf, output.FormatText).WriteTable(s.Table, limit); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Session) pushUndo() {
	s.undo = append(s.undo, s.Table)
	if len(s.undo) > MaxUndo {
		s.undo = s.undo[1:]
	}
}

func (s *Session) popUndo() (string, error) {
	if len(s.undo) == 0 {
		return "", fmt.Errorf("nada para desfazer")
	}
	s.Table = s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	return fmt.Sprintf("Desfeito. A planilha voltou a ter %d linhas.\n", s.Table.Len()), nil
}

func (s *Session) suggestions() (string, error) {
	if s.Table.Width() == 0 {
		return "", errNoTable
	}
	hints := intent.SmartSuggestions(s.Table)
	hints = append(hints, intent.RoleSuggestions(s.Table)...)
	if len(hints) == 0 {
		return "Nenhuma sugestão para esta planilha.\n", nil
	}
	return strings.Join(hints, "\n") + "\n", nil
}

func (s *Session) applyTemplate(args []string) (string, error) {
	if len(args) == 0 {
		var b strings.Builder
		for _, t := range templates.All() {
			fmt.Fprintf(&b, "  %-20s %s\n", t.ID, t.Description)
		}
		return b.String(), nil
	}
	res, err := templates.Apply(args[0], s.Table)
	if err != nil {
		return "", err
	}
	s.pushUndo()
	s.Table = res.Table
	var buf bytes.Buffer
	output.NewWriterTo(&buf, output.FormatText).Success(strings.Join(res.Changes, "; "))
	return buf.String(), nil
}

func (s *Session) command(ctx context.Context, line string) (string, error) {
	s.log(ctx, "user", line)
	resp, err := s.Processor.Process(ctx, line, s.Table)
	if err != nil {
		return "", err
	}
	s.log(ctx, "assistant", resp.Message)

	var b bytes.Buffer
	w := output.NewWriterTo(&b, output.FormatText)
	switch {
	case resp.Success && resp.Kind == assistant.KindTransform:
		s.pushUndo()
		s.Table = resp.Table
		w.Success(resp.Message)
		if preview, err := s.render(5); err == nil {
			b.WriteString(preview)
		}
	case resp.Success:
		w.WriteLn(resp.Message)
	default:
		w.Warn(resp.Message)
	}
	for _, f := range resp.References {
		w.Dim(fmt.Sprintf("  %s — %s", f.Syntax, f.Description))
	}
	for _, hint := range resp.Suggestions {
		w.WriteLn("  " + hint)
	}
	return b.String(), nil
}

func (s *Session) log(ctx context.Context, role, content string) {
	if s.Transcript == nil {
		return
	}
	// A broken transcript must not end the session.
	_ = s.Transcript.Log(ctx, role, content)
}

// Complete returns tab-completion candidates for the given input.
func (s *Session) Complete(input string) []string {
	input = strings.TrimSpace(input)
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return builtins
	}
	if len(parts) == 1 {
		var matches []string
		for _, cmd := range builtins {
			if strings.HasPrefix(cmd, parts[0]) {
				matches = append(matches, cmd)
			}
		}
		sort.Strings(matches)
		return matches
	}
	if parts[0] == "template" && len(parts) == 2 {
		var matches []string
		for _, t := range templates.All() {
			if strings.HasPrefix(t.ID, parts[1]) {
				matches = append(matches, t.ID)
			}
		}
		return matches
	}
	return nil
}

func (s *Session) buildCompleter() []readline.PrefixCompleterInterface {
	var tpl []readline.PrefixCompleterInterface
	for _, t := range templates.All() {
		tpl = append(tpl, readline.PcItem(t.ID))
	}
	var items []readline.PrefixCompleterInterface
	for _, cmd := range builtins {
		if cmd == "template" {
			items = append(items, readline.PcItem(cmd, tpl...))
			continue
		}
		items = append(items, readline.PcItem(cmd))
	}
	return items
}

const helpText = `Comandos do shell:
  abrir <arquivo> [aba]  carrega uma planilha (.xlsx, .csv, .json)
  salvar [arquivo]       grava a planilha atual
  mostrar [n]            mostra as primeiras n linhas
  colunas                lista as colunas
  desfazer               volta à versão anterior
  sugestoes              sugere comandos para esta planilha
  template [id]          lista ou aplica um template de limpeza
  historico              mostra os comandos da sessão
  sair                   encerra

Qualquer outra frase é enviada ao assistente, por exemplo:
  remover duplicatas
  ordenar por nome
  separar nome
  como usar PROCV?
`

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
