package usecase

import (
	"context"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-dataset-prep/internal/dataset"
	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/metrics"
)

type SplitDatasetInput struct {
	SourceDir   string
	TargetDir   string
	Proportions entity.Proportions
	Seed        int64
}

type SplitDatasetOutput struct {
	*dataset.Result
	ManifestPath string
}

type SplitDatasetUseCase struct {
	splitter *dataset.Splitter
	logger   *zap.Logger
}

func NewSplitDatasetUseCase(logger *zap.Logger) *SplitDatasetUseCase {
	return &SplitDatasetUseCase{splitter: dataset.NewSplitter(logger), logger: logger}
}

// Execute splits the source tree and records the placement of every pair in
// a manifest at the root of the target tree.
func (uc *SplitDatasetUseCase) Execute(ctx context.Context, in SplitDatasetInput) (*SplitDatasetOutput, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "SplitDatasetUseCase.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("dataset.source", in.SourceDir),
		attribute.String("dataset.target", in.TargetDir),
		attribute.Int64("dataset.seed", in.Seed),
	)

	for _, w := range in.Proportions.Warnings() {
		uc.logger.Warn("unusual split proportions", zap.String("warning", w))
	}

	start := time.Now()
	res, err := uc.splitter.Split(ctx, in.SourceDir, in.TargetDir, in.Proportions, in.Seed)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	metrics.StageDuration.WithLabelValues("split").Observe(time.Since(start).Seconds())

	for _, s := range entity.Splits {
		metrics.ImagesCopiedTotal.WithLabelValues(string(s)).Add(float64(res.Counts.Count(s)))
	}
	metrics.UnmatchedImagesTotal.Add(float64(res.Counts.Unmatched))

	manifest := filepath.Join(in.TargetDir, dataset.ManifestName)
	if err := dataset.WriteManifest(manifest, res.Pairs); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("dataset.images", res.Counts.Total()))
	return &SplitDatasetOutput{Result: res, ManifestPath: manifest}, nil
}
