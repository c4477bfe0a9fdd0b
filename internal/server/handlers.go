package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/glossary"
	"github.com/klytics/sheetkit/internal/intent"
	"github.com/klytics/sheetkit/internal/logging"
	"github.com/klytics/sheetkit/internal/store"
	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/templates"
)

// tableRequest is the spreadsheet a client sends along with a request:
// records plus the column order.
type tableRequest struct {
	Data    []map[string]any `json:"data"`
	Columns []string         `json:"columns"`
}

func (tr tableRequest) table() (*table.Table, error) {
	if len(tr.Data) == 0 && len(tr.Columns) == 0 {
		return &table.Table{}, nil
	}
	return table.FromRecords(tr.Columns, tr.Data)
}

type commandRequest struct {
	tableRequest
	Command   string `json:"command"`
	ProjectID string `json:"project_id,omitempty"`
}

// commandResponse flattens assistant.Response into records, which is what
// a spreadsheet front end renders.
type commandResponse struct {
	Success     bool                `json:"success"`
	Type        assistant.Kind      `json:"type"`
	Message     string              `json:"message"`
	Intent      intent.Intent       `json:"intent,omitempty"`
	Mode        assistant.Mode      `json:"mode,omitempty"`
	Data        []map[string]any    `json:"data"`
	Columns     []string            `json:"columns,omitempty"`
	Affected    int                 `json:"affected,omitempty"`
	Info        map[string]any      `json:"info,omitempty"`
	References  []glossary.Function `json:"references,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

func flatten(resp *assistant.Response) commandResponse {
	out := commandResponse{
		Success:     resp.Success,
		Type:        resp.Kind,
		Message:     resp.Message,
		Intent:      resp.Intent,
		Mode:        resp.Mode,
		Affected:    resp.Affected,
		Info:        resp.Details,
		References:  resp.References,
		Suggestions: resp.Suggestions,
	}
	if resp.Table != nil && resp.Kind == assistant.KindTransform {
		out.Data = resp.Table.Records()
		out.Columns = resp.Table.Columns()
	}
	return out
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := req.table()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := s.now()
	resp, err := s.proc.Process(r.Context(), req.Command, t)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Debug("command",
		zap.String("command", logging.SanitizeCommand(req.Command)),
		zap.String("intent", string(resp.Intent)),
		zap.Bool("success", resp.Success))

	if req.ProjectID != "" && s.store != nil && resp.Kind == assistant.KindTransform {
		s.track(r, req, resp, s.now().Sub(start))
	}
	writeJSON(w, http.StatusOK, flatten(resp))
}

// track stores the transformation in the project's history and, when it
// succeeded, the new table as the project's current data. Failures are
// logged; the command result is still returned.
func (s *Server) track(r *http.Request, req commandRequest, resp *assistant.Response, elapsed time.Duration) {
	ctx := r.Context()
	_, err := s.store.SaveTransformation(ctx, store.Transformation{
		ProjectID: req.ProjectID,
		Command:   req.Command,
		Intent:    string(resp.Intent),
		Success:   resp.Success,
		Message:   resp.Message,
		Duration:  elapsed,
	})
	if err == nil && resp.Success {
		err = s.store.UpdateProject(ctx, req.ProjectID, resp.Table)
	}
	if err != nil {
		s.log.Warn("could not track transformation", zap.String("project", req.ProjectID), zap.Error(err))
	}
}

// uploadPreviewRows bounds the rows echoed back by an upload.
const uploadPreviewRows = 100

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Erro: envie a planilha no campo 'file'")
		return
	}
	defer file.Close()

	format, err := tabular.Detect(header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Erro: "+err.Error())
		return
	}
	t, err := tabular.Decode(file, format, r.FormValue("sheet"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Erro: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"filename": filepath.Base(header.Filename),
		"rows":     t.Len(),
		"columns":  t.Columns(),
		"data":     t.Slice(0, uploadPreviewRows).Records(),
	})
}

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates.All()})
}

type templateRequest struct {
	tableRequest
	TemplateID string `json:"template_id"`
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := req.table()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := templates.Apply(req.TemplateID, t)
	switch {
	case errors.Is(err, templates.ErrNoData), errors.Is(err, templates.ErrNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    res.Table.Records(),
		"columns": res.Table.Columns(),
		"changes": res.Changes,
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := req.table()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	suggestions := intent.SmartSuggestions(t)
	suggestions = append(suggestions, intent.RoleSuggestions(t)...)
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleGlossarySearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "informe a busca em ?q=")
		return
	}
	results := s.glossary.Search(q)
	if results == nil {
		results = []glossary.Function{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleGlossaryExplain(w http.ResponseWriter, r *http.Request) {
	formula := r.URL.Query().Get("formula")
	if formula == "" {
		writeError(w, http.StatusBadRequest, "informe a fórmula em ?formula=")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"formula":     formula,
		"explanation": s.glossary.Explain(formula),
	})
}

func (s *Server) handleGlossaryTips(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tips": s.glossary.Tips()})
}

type formulaRequest struct {
	Query   string   `json:"query"`
	Columns []string `json:"columns"`
}

func (s *Server) handleGlossaryFormula(w http.ResponseWriter, r *http.Request) {
	var req formulaRequest
	if !decode(w, r, &req) {
		return
	}
	sug, ok := glossary.SuggestFormula(req.Query, req.Columns)
	if !ok {
		writeError(w, http.StatusNotFound, "nenhuma fórmula sugerida para essa descrição")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"description": sug.Description,
		"formula":     sug.Formula(),
		"column":      sug.Column,
	})
}
