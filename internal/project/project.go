// Package project owns the draft/published/archived lifecycle and the
// author-only mutation rules.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/marketd/internal/license"
	"github.com/dukerupert/marketd/internal/model"
	"github.com/dukerupert/marketd/internal/store"
)

var (
	ErrNotFound            = errors.New("project: not found")
	ErrUnauthorized        = errors.New("project: only the author may do this")
	ErrProjectNotDraftable = errors.New("project: cannot delete outside draft; archive instead")
	ErrRepoUnverified      = errors.New("project: repository ownership could not be verified")
)

// OwnershipVerifier checks that the author controls a repository URL.
// It belongs to the external OAuth/repository provider; a nil verifier
// disables the check.
type OwnershipVerifier interface {
	VerifyOwnership(ctx context.Context, repoURL string, userID int64) (bool, error)
}

type Service struct {
	projects  *store.ProjectStore
	purchases *store.PurchaseStore
	sellers   *store.SellerAccountStore
	verifier  OwnershipVerifier
	logger    *slog.Logger
}

func New(projects *store.ProjectStore, purchases *store.PurchaseStore, sellers *store.SellerAccountStore, verifier OwnershipVerifier, logger *slog.Logger) *Service {
	return &Service{
		projects:  projects,
		purchases: purchases,
		sellers:   sellers,
		verifier:  verifier,
		logger:    logger,
	}
}

// SaveDraft creates a new draft for the author. Drafts may be incomplete;
// only basic license sanity is checked (no negative prices, known type).
func (s *Service) SaveDraft(authorID int64, p *model.Project) (*model.Project, error) {
	p.AuthorID = authorID
	if p.License.Type == "" {
		p.License.Type = model.LicenseFree
	}
	if p.License.FeePct == 0 {
		p.License.FeePct = 20
	}
	if err := license.Validate(p.License, nil, false); err != nil {
		return nil, err
	}
	return s.projects.Create(p)
}

// Update rewrites listing fields and the license. Author-only. Changing a
// published project's price affects future checkouts only; settled
// purchases keep the price they paid.
func (s *Service) Update(actorID int64, p *model.Project) (*model.Project, error) {
	current, err := s.authored(actorID, p.ID)
	if err != nil {
		return nil, err
	}
	p.AuthorID = current.AuthorID
	if p.License.FeePct == 0 {
		p.License.FeePct = current.License.FeePct
	}
	if err := license.Validate(p.License, nil, false); err != nil {
		return nil, err
	}
	return s.projects.Update(p)
}

// Publish makes a project discoverable and purchasable. The license must
// pass publish-time validation against the author's seller account, and
// the paid repository URL must verify when a verifier is configured.
// Publishing an already-published project is not an error.
func (s *Service) Publish(ctx context.Context, actorID, projectID int64) (*model.Project, error) {
	p, err := s.authored(actorID, projectID)
	if err != nil {
		return nil, err
	}

	acct, err := s.sellers.GetByUserID(p.AuthorID)
	if err != nil {
		return nil, err
	}
	if err := license.Validate(p.License, acct, true); err != nil {
		return nil, err
	}

	if s.verifier != nil && p.Repository.PaidURL != "" {
		ok, err := s.verifier.VerifyOwnership(ctx, p.Repository.PaidURL, p.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("verify repository: %w", err)
		}
		if !ok {
			return nil, ErrRepoUnverified
		}
	}

	if err := s.projects.SetPublished(p.ID, time.Now().UTC()); err != nil {
		return nil, err
	}
	s.logger.Info("project published", "project_id", p.ID, "author_id", p.AuthorID)
	return s.projects.GetByID(p.ID)
}

// Archive takes a published project off the market while keeping the row
// for historical purchases.
func (s *Service) Archive(actorID, projectID int64) error {
	p, err := s.authored(actorID, projectID)
	if err != nil {
		return err
	}
	return s.projects.SetStatus(p.ID, model.StatusArchived)
}

// Delete removes a draft. Anything else is refused: a published project
// with active purchases must survive for referential integrity, so the
// author archives instead.
func (s *Service) Delete(actorID, projectID int64) error {
	p, err := s.authored(actorID, projectID)
	if err != nil {
		return err
	}
	if p.Status != model.StatusDraft {
		return ErrProjectNotDraftable
	}
	return s.projects.Delete(p.ID)
}

// ForceDelete is the administrative path. It still refuses when active
// purchases reference the project.
func (s *Service) ForceDelete(projectID int64) error {
	p, err := s.projects.GetByID(projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	n, err := s.purchases.CountActiveByProject(projectID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrProjectNotDraftable
	}
	return s.projects.Delete(projectID)
}

// Get returns a project without any authorization filter.
func (s *Service) Get(projectID int64) (*model.Project, error) {
	return s.projects.GetByID(projectID)
}

func (s *Service) authored(actorID, projectID int64) (*model.Project, error) {
	p, err := s.projects.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.AuthorID != actorID {
		return nil, ErrUnauthorized
	}
	return p, nil
}
