package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/klytics/sheetkit/internal/table"
)

// Project is a loaded spreadsheet and its transformed state. Original and
// Current are nil in listings.
type Project struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	FileName  string       `json:"file_name"`
	Columns   []string     `json:"columns"`
	Rows      int          `json:"row_count"`
	Width     int          `json:"column_count"`
	Original  *table.Table `json:"original_data,omitempty"`
	Current   *table.Table `json:"current_data,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Transformation is one command applied to a project.
type Transformation struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id"`
	Command   string        `json:"command"`
	Intent    string        `json:"intent"`
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// CreateProject stores t as both the original and current data of a new
// project.
func (s *Store) CreateProject(ctx context.Context, name, fileName string, t *table.Table) (Project, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return Project{}, fmt.Errorf("encoding project data: %w", err)
	}
	now := s.stamp()
	p := Project{
		ID:        uuid.NewString(),
		Name:      name,
		FileName:  fileName,
		Columns:   t.Columns(),
		Rows:      t.Len(),
		Width:     t.Width(),
		Original:  t,
		Current:   t,
		CreatedAt: fromStamp(now),
		UpdatedAt: fromStamp(now),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, file_name, original_data, current_data, row_count, column_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.FileName, string(data), string(data), p.Rows, p.Width, now, now)
	if err != nil {
		return Project{}, fmt.Errorf("creating project: %w", err)
	}
	return p, nil
}

// Projects lists projects newest first, without their data.
func (s *Store) Projects(ctx context.Context, skip, limit int) ([]Project, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, file_name, current_data, row_count, column_count, created_at, updated_at
		 FROM projects ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Project returns one project with its data.
func (s *Store) Project(ctx context.Context, id string) (Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, file_name, original_data, current_data, row_count, column_count, created_at, updated_at
		 FROM projects WHERE id = ?`, id)
	p, err := scanProject(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner, full bool) (Project, error) {
	var (
		p                 Project
		original, current string
		created, updated  int64
		err               error
	)
	if full {
		err = sc.Scan(&p.ID, &p.Name, &p.FileName, &original, &current, &p.Rows, &p.Width, &created, &updated)
	} else {
		err = sc.Scan(&p.ID, &p.Name, &p.FileName, &current, &p.Rows, &p.Width, &created, &updated)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scanning project: %w", err)
	}
	p.CreatedAt, p.UpdatedAt = fromStamp(created), fromStamp(updated)

	cur := &table.Table{}
	if err := json.Unmarshal([]byte(current), cur); err != nil {
		return p, fmt.Errorf("decoding project %s: %w", p.ID, err)
	}
	p.Columns = cur.Columns()
	if !full {
		return p, nil
	}
	orig := &table.Table{}
	if err := json.Unmarshal([]byte(original), orig); err != nil {
		return p, fmt.Errorf("decoding project %s: %w", p.ID, err)
	}
	p.Original, p.Current = orig, cur
	return p, nil
}

// UpdateProject replaces the current data of a project.
func (s *Store) UpdateProject(ctx context.Context, id string, current *table.Table) error {
	data, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encoding project data: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET current_data = ?, row_count = ?, column_count = ?, updated_at = ? WHERE id = ?`,
		string(data), current.Len(), current.Width(), s.stamp(), id)
	if err != nil {
		return fmt.Errorf("updating project %s: %w", id, err)
	}
	return affected(res, "project", id)
}

// DeleteProject removes a project and its history.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return affected(res, "project", id)
}

// SaveTransformation appends t to its project's history.
func (s *Store) SaveTransformation(ctx context.Context, t Transformation) (Transformation, error) {
	t.ID = uuid.NewString()
	now := s.stamp()
	t.CreatedAt = fromStamp(now)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transformations (id, project_id, command, intent, success, message, execution_time_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Command, t.Intent, boolInt(t.Success), t.Message, t.Duration.Milliseconds(), now)
	if err != nil {
		return Transformation{}, fmt.Errorf("saving transformation: %w", err)
	}
	return t, nil
}

// History returns a project's transformations, newest first.
func (s *Store) History(ctx context.Context, projectID string) ([]Transformation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, command, intent, success, message, execution_time_ms, created_at
		 FROM transformations WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []Transformation
	for rows.Next() {
		var (
			t       Transformation
			success int
			ms, at  int64
		)
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Command, &t.Intent, &success, &t.Message, &ms, &at); err != nil {
			return nil, fmt.Errorf("scanning transformation: %w", err)
		}
		t.Success = success == 1
		t.Duration = time.Duration(ms) * time.Millisecond
		t.CreatedAt = fromStamp(at)
		out = append(out, t)
	}
	return out, rows.Err()
}
