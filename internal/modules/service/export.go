package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/blob"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/repo"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/render"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/utils/mime"
	"go.uber.org/zap"
)

// ArtifactStore keeps published exports.
type ArtifactStore interface {
	UploadBytes(ctx context.Context, keyPrefix, ext, contentType string, data []byte, metadata map[string]string) (*blob.UploadedMeta, error)
	PresignGet(ctx context.Context, key, filename string, expire time.Duration) (string, error)
}

type ExportService interface {
	// Render replays the project's contribution log into an artifact. It reads
	// the store on every call; identical logs give identical bytes.
	Render(ctx context.Context, in ExportInput) (*ExportOutput, error)
	// Publish renders and uploads the artifact, returning a presigned download URL.
	Publish(ctx context.Context, in ExportInput) (*PublishOutput, error)
}

type exportService struct {
	projects      repo.ProjectRepo
	contributions repo.ContributionRepo
	store         ArtifactStore
	cfg           *config.Config
	log           *zap.Logger
}

func NewExportService(projects repo.ProjectRepo, contributions repo.ContributionRepo, store ArtifactStore, cfg *config.Config, log *zap.Logger) ExportService {
	return &exportService{
		projects:      projects,
		contributions: contributions,
		store:         store,
		cfg:           cfg,
		log:           log,
	}
}

type ExportInput struct {
	ProjectID uuid.UUID `json:"project_id"`
	// Format is one of svg, png, wav, json. Empty picks the canvas type's preferred format.
	Format string `json:"format"`
}

type ExportOutput struct {
	Project     *model.Project `json:"-"`
	Format      render.Format  `json:"format"`
	Filename    string         `json:"filename"`
	ContentType string         `json:"content_type"`
	Data        []byte         `json:"-"`
}

type PublishOutput struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Key         string    `json:"key"`
	SHA256      string    `json:"sha256"`
	SizeB       int64     `json:"size_b"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SanitizeFilename keeps ASCII letters and digits, lowercased, and replaces
// everything else with an underscore.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "canvas"
	}
	return b.String()
}

func (s *exportService) Render(ctx context.Context, in ExportInput) (*ExportOutput, error) {
	p, err := s.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, storeErr(err)
	}

	format := render.Formats(p.CanvasType)[0]
	if in.Format != "" {
		if format, err = render.ParseFormat(in.Format); err != nil {
			return nil, err
		}
	}
	if !render.Supports(p.CanvasType, format) {
		return nil, fmt.Errorf("%w: %s canvases export as %v", ErrUnsupportedFormat, p.CanvasType, render.Formats(p.CanvasType))
	}

	items, err := s.contributions.List(ctx, p.ID, 0, 0)
	if err != nil {
		return nil, storeErr(err)
	}
	entries := make([]canvas.Entry, 0, len(items))
	for _, c := range items {
		payload, err := c.Decode()
		if err != nil {
			return nil, fmt.Errorf("contribution %d: %w", c.ID, err)
		}
		entries = append(entries, canvas.Entry{Payload: payload, CreatedAt: c.CreatedAt})
	}

	data, err := render.Render(p.CanvasType, entries, format)
	if err != nil {
		return nil, err
	}

	filename := SanitizeFilename(p.Title) + format.Extension()
	return &ExportOutput{
		Project:     p,
		Format:      format,
		Filename:    filename,
		ContentType: mime.DetectMimeType(data, filename),
		Data:        data,
	}, nil
}

func (s *exportService) Publish(ctx context.Context, in ExportInput) (*PublishOutput, error) {
	if s.store == nil {
		return nil, ErrExportStorageDisabled
	}
	out, err := s.Render(ctx, in)
	if err != nil {
		return nil, err
	}

	prefix := strings.Trim(s.cfg.Export.KeyPrefix, "/") + "/" + out.Project.ID.String()
	meta, err := s.store.UploadBytes(ctx, prefix, out.Format.Extension(), out.ContentType, out.Data, map[string]string{
		"project_id": out.Project.ID.String(),
		"format":     string(out.Format),
	})
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	expire := time.Duration(s.cfg.S3.PresignExpireSec) * time.Second
	url, err := s.store.PresignGet(ctx, meta.Key, out.Filename, expire)
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}

	s.log.Sugar().Infow("export published", "project_id", out.Project.ID, "format", out.Format, "key", meta.Key, "size_b", meta.SizeB)
	return &PublishOutput{
		Filename:    out.Filename,
		ContentType: out.ContentType,
		Key:         meta.Key,
		SHA256:      meta.SHA256,
		SizeB:       meta.SizeB,
		URL:         url,
		ExpiresAt:   time.Now().Add(expire).UTC(),
	}, nil
}
