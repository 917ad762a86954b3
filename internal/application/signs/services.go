package signs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/traffic-sign-indicator/internal/application"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/domain/ai"
	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/infra/ai/prompt"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/logger"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/metrics"
)

// DefaultModelID model inference bawaan
const DefaultModelID = "amazon.nova-lite-v1:0"

// Service implements the sign analysis workflow and candidate listing.
// Service holds no per-request state and is safe for concurrent use.
type Service struct {
	Images  domain.ImageSource
	Model   ai.Model
	Records domain.RecordStore
	Clock   application.Clock
	Logger  *zap.Logger

	ModelID string
	Prefix  string
	NewID   func() string
}

// AnalyzeCommand untuk trigger satu analisa
type AnalyzeCommand struct {
	ImageKey string
	Context  string
	// Image, kalau diisi, dipakai langsung tanpa baca object store.
	Image []byte
}

// Analyze fetches the image, describes the sign, asks for a precaution and
// persists one record. Nothing is retried.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (domain.AnalysisRecord, error) {
	log := logger.OrNop(s.Logger)

	key := domain.ResolveKey(s.prefix(), cmd.ImageKey)
	if key == "" {
		metrics.AnalysesTotal.WithLabelValues("invalid").Inc()
		return domain.AnalysisRecord{}, fmt.Errorf("%w: image_key is required", domain.ErrInvalidRequest)
	}
	drivingContext := domain.NormalizeContext(cmd.Context)
	log = log.With(zap.String("image_key", key))

	image := cmd.Image
	if len(image) == 0 {
		b, err := s.Images.Fetch(ctx, key)
		if err != nil {
			metrics.AnalysesTotal.WithLabelValues("source_not_found").Inc()
			log.Warn("image fetch failed", zap.Error(err))
			if !errors.Is(err, domain.ErrSourceNotFound) {
				err = fmt.Errorf("%w: %s: %w", domain.ErrSourceNotFound, key, err)
			}
			return domain.AnalysisRecord{}, err
		}
		image = b
	}

	raw, err := s.converse(ctx, "describe", prompt.DescribeRequest(s.modelID(), domain.ImageFormat(key), image))
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("inference_error").Inc()
		log.Error("describe sign failed", zap.Error(err))
		return domain.AnalysisRecord{}, fmt.Errorf("%w: describe sign: %w", domain.ErrInference, err)
	}
	description := domain.NormalizeDescription(raw)
	if description == domain.FallbackDescription {
		metrics.FallbackTotal.Inc()
	}

	precaution, err := s.converse(ctx, "precaution", prompt.PrecautionRequest(s.modelID(), description, drivingContext))
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("inference_error").Inc()
		log.Error("precaution failed", zap.Error(err))
		return domain.AnalysisRecord{}, fmt.Errorf("%w: precaution: %w", domain.ErrInference, err)
	}

	rec := domain.AnalysisRecord{
		ID:                s.newID(),
		ImageKey:          key,
		SignDescription:   description,
		Context:           drivingContext,
		PrecautionWarning: precaution,
		Timestamp:         s.now().UTC(),
	}
	if err := s.Records.Put(ctx, rec); err != nil {
		metrics.AnalysesTotal.WithLabelValues("persist_error").Inc()
		log.Error("persist record failed", zap.Error(err))
		return rec, fmt.Errorf("%w: %w", domain.ErrPersist, err)
	}

	metrics.AnalysesTotal.WithLabelValues("ok").Inc()
	log.Info("analysis stored",
		zap.String("id", rec.ID),
		zap.String("sign_description", rec.SignDescription),
		zap.Bool("empty_precaution", rec.PrecautionWarning == ""),
	)
	return rec, nil
}

// ListCandidates returns image filenames under the input prefix, sorted and
// stripped of their path. A listing failure yields an empty list.
func (s *Service) ListCandidates(ctx context.Context) []string {
	keys, err := s.Images.List(ctx, s.prefix())
	if err != nil {
		metrics.CandidatesListedTotal.WithLabelValues("error").Inc()
		logger.OrNop(s.Logger).Warn("list candidates failed", zap.String("prefix", s.prefix()), zap.Error(err))
		return []string{}
	}
	metrics.CandidatesListedTotal.WithLabelValues("ok").Inc()

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if domain.IsImageFile(k) {
			out = append(out, domain.CandidateName(k))
		}
	}
	sort.Strings(out)
	return out
}

// Latest returns a page of stored records, newest first.
func (s *Service) Latest(ctx context.Context, page, pageSize int) ([]domain.AnalysisRecord, error) {
	return s.Records.Latest(ctx, page, pageSize)
}

func (s *Service) converse(ctx context.Context, step string, req ai.Request) (string, error) {
	start := time.Now()
	resp, err := s.Model.Converse(ctx, req)
	metrics.InferenceDurationSeconds.WithLabelValues(step).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return resp.FirstText()
}

func (s *Service) modelID() string {
	if s.ModelID == "" {
		return DefaultModelID
	}
	return s.ModelID
}

func (s *Service) prefix() string {
	if s.Prefix == "" {
		return domain.InputPrefix
	}
	return s.Prefix
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
