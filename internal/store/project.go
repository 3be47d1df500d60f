package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/marketd/internal/model"
)

type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

const projectCols = `id, author_id, title, description, category, tags, status,
	license_type, seller_price_cents, currency, fee_pct, free_features, paid_features,
	repo_free_url, repo_paid_url, demo_url, published_at, created_at, updated_at`

func scanProject(scanner interface{ Scan(...any) error }) (*model.Project, error) {
	var p model.Project
	var tags, freeFeat, paidFeat string
	var publishedAt sql.NullTime
	err := scanner.Scan(
		&p.ID, &p.AuthorID, &p.Title, &p.Description, &p.Category, &tags, &p.Status,
		&p.License.Type, &p.License.SellerPriceCents, &p.License.Currency, &p.License.FeePct,
		&freeFeat, &paidFeat,
		&p.Repository.FreeURL, &p.Repository.PaidURL, &p.DemoURL,
		&publishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(freeFeat), &p.License.FreeFeatures); err != nil {
		return nil, fmt.Errorf("decode free features: %w", err)
	}
	if err := json.Unmarshal([]byte(paidFeat), &p.License.PaidFeatures); err != nil {
		return nil, fmt.Errorf("decode paid features: %w", err)
	}
	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}
	return &p, nil
}

func encodeList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

// Create inserts a new draft project owned by authorID.
func (s *ProjectStore) Create(p *model.Project) (*model.Project, error) {
	if p.License.Type == "" {
		p.License.Type = model.LicenseFree
	}
	if p.License.Currency == "" {
		p.License.Currency = "usd"
	}
	result, err := s.db.Exec(
		`INSERT INTO projects (author_id, title, description, category, tags,
			license_type, seller_price_cents, currency, fee_pct, free_features, paid_features,
			repo_free_url, repo_paid_url, demo_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.AuthorID, p.Title, p.Description, p.Category, encodeList(p.Tags),
		p.License.Type, p.License.SellerPriceCents, p.License.Currency, p.License.FeePct,
		encodeList(p.License.FreeFeatures), encodeList(p.License.PaidFeatures),
		p.Repository.FreeURL, p.Repository.PaidURL, p.DemoURL,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProjectStore) GetByID(id int64) (*model.Project, error) {
	row := s.db.QueryRow(`SELECT `+projectCols+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *ProjectStore) ListByAuthor(authorID int64) ([]*model.Project, error) {
	rows, err := s.db.Query(
		`SELECT `+projectCols+` FROM projects WHERE author_id = ? ORDER BY created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects by author: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

func (s *ProjectStore) ListPublished() ([]*model.Project, error) {
	rows, err := s.db.Query(
		`SELECT `+projectCols+` FROM projects WHERE status = ? ORDER BY published_at DESC`,
		model.StatusPublished,
	)
	if err != nil {
		return nil, fmt.Errorf("list published projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

func collectProjects(rows *sql.Rows) ([]*model.Project, error) {
	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Update rewrites the mutable listing fields and the embedded license.
func (s *ProjectStore) Update(p *model.Project) (*model.Project, error) {
	_, err := s.db.Exec(
		`UPDATE projects SET title = ?, description = ?, category = ?, tags = ?,
			license_type = ?, seller_price_cents = ?, currency = ?, fee_pct = ?,
			free_features = ?, paid_features = ?,
			repo_free_url = ?, repo_paid_url = ?, demo_url = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.Title, p.Description, p.Category, encodeList(p.Tags),
		p.License.Type, p.License.SellerPriceCents, p.License.Currency, p.License.FeePct,
		encodeList(p.License.FreeFeatures), encodeList(p.License.PaidFeatures),
		p.Repository.FreeURL, p.Repository.PaidURL, p.DemoURL,
		p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return s.GetByID(p.ID)
}

// SetPublished marks the project published and stamps the publish time on
// first publication only.
func (s *ProjectStore) SetPublished(id int64, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE projects SET status = ?, published_at = COALESCE(published_at, ?),
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		model.StatusPublished, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("publish project: %w", err)
	}
	return nil
}

func (s *ProjectStore) SetStatus(id int64, status string) error {
	_, err := s.db.Exec(
		`UPDATE projects SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("set project status: %w", err)
	}
	return nil
}

func (s *ProjectStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
