package wiki

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const markdownFormat = "markdown"

// pageRecord is the row layout of a locally stored wiki page.
type pageRecord struct {
	gorm.Model
	ProjectID string `gorm:"size:255;not null;uniqueIndex:idx_wiki_pages_project_slug"`
	Slug      string `gorm:"size:512;not null;uniqueIndex:idx_wiki_pages_project_slug"`
	Title     string `gorm:"size:512;not null"`
	Format    string `gorm:"size:32;not null"`
	Content   string `gorm:"type:text;not null"`
}

// TableName defines the table name for the page record.
func (pageRecord) TableName() string {
	return "wiki_pages"
}

// Store is a Client backed by a local SQLite database. Pages are insert-only.
type Store struct {
	db        *gorm.DB
	logger    *logrus.Logger
	publicURL string
}

var _ Client = (*Store)(nil)

// NewStore constructs a Gorm-backed wiki store. publicURL prefixes the links returned by ProjectURL.
func NewStore(db *gorm.DB, publicURL string, logger *logrus.Logger) (*Store, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Store{
		db:        db,
		logger:    logger,
		publicURL: strings.TrimSuffix(strings.TrimSpace(publicURL), "/"),
	}, nil
}

// ListPages returns the pages of a project in insertion order.
func (s *Store) ListPages(ctx context.Context, projectID string) ([]PageMeta, error) {
	pid, err := requireProject(projectID)
	if err != nil {
		return nil, err
	}

	var records []pageRecord
	err = s.db.WithContext(ctx).
		Select("slug", "title").
		Where("project_id = ?", pid).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		s.logError(logrus.Fields{"project_id": pid}, err, "listing pages")
		return nil, eris.Wrapf(ErrUpstream, "listing pages for project %s: %v", pid, err)
	}

	pages := make([]PageMeta, 0, len(records))
	for _, record := range records {
		pages = append(pages, PageMeta{Slug: record.Slug, Title: record.Title})
	}

	return pages, nil
}

// GetPage returns the page stored under (projectID, slug).
func (s *Store) GetPage(ctx context.Context, projectID, slug string) (*Page, error) {
	pid, err := requireProject(projectID)
	if err != nil {
		return nil, err
	}

	trimmedSlug := strings.TrimSpace(slug)
	if trimmedSlug == "" {
		return nil, eris.Wrap(ErrNotFound, "slug is required")
	}

	var record pageRecord
	err = s.db.WithContext(ctx).First(&record, "project_id = ? AND slug = ?", pid, trimmedSlug).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, eris.Wrapf(ErrNotFound, "page %s in project %s", trimmedSlug, pid)
		}
		s.logError(logrus.Fields{"project_id": pid, "slug": trimmedSlug}, err, "fetching page by slug")
		return nil, eris.Wrapf(ErrUpstream, "fetching page %s: %v", trimmedSlug, err)
	}

	return record.toPage(), nil
}

// CreatePage inserts a new markdown page. An existing (projectID, slug) pair yields ErrPageExists.
func (s *Store) CreatePage(ctx context.Context, projectID, path, content string) error {
	pid, err := requireProject(projectID)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(path)
	slug := Slugify(title)
	if slug == "" {
		return eris.Wrap(ErrUpstream, "page path is required")
	}

	fields := logrus.Fields{"project_id": pid, "slug": slug}
	record := &pageRecord{
		ProjectID: pid,
		Slug:      slug,
		Title:     title,
		Format:    markdownFormat,
		Content:   content,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&pageRecord{}).Where("project_id = ? AND slug = ?", pid, slug).Count(&existing).Error; err != nil {
			return eris.Wrap(err, "checking for existing page")
		}
		if existing > 0 {
			return ErrPageExists
		}
		return tx.Create(record).Error
	})
	switch {
	case err == nil:
		return nil
	case eris.Is(err, ErrPageExists), eris.Is(err, gorm.ErrDuplicatedKey):
		return eris.Wrapf(ErrPageExists, "creating page %s in project %s", slug, pid)
	default:
		s.logError(fields, err, "saving page")
		return eris.Wrapf(ErrUpstream, "saving page %s: %v", slug, err)
	}
}

// ProjectURL points at the page index served by this process for the project.
func (s *Store) ProjectURL(_ context.Context, projectID string) (string, error) {
	pid, err := requireProject(projectID)
	if err != nil {
		return "", err
	}

	return s.publicURL + "/wiki/" + url.PathEscape(pid), nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return eris.Wrap(err, "retrieving sql.DB")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return eris.Wrap(err, "pinging database")
	}
	return nil
}

func (r pageRecord) toPage() *Page {
	return &Page{
		ProjectID: r.ProjectID,
		Slug:      r.Slug,
		Title:     r.Title,
		Format:    r.Format,
		Content:   r.Content,
	}
}

func (s *Store) logError(fields logrus.Fields, err error, message string) {
	if s.logger == nil {
		return
	}

	entry := s.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
