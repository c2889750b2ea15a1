// Package imagefp estimates whether an uploaded image was produced by a
// generator from its bytes alone: metadata strings, entropy, chunk layout,
// size and dimensions.
package imagefp

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/provenance-lab/origincheck/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// UnknownTool marks generic AI markers that name no generator.
	UnknownTool = "unknown-ai"

	baseline          = 30
	minConfidence     = 5
	maxConfidence     = 95
	namedToolFloor    = 70
	aiThreshold       = 60
	humanThreshold    = 25
	boostCategories   = 1.15
	boostAgreeingTool = 1.3

	noSignalSource = "Belirgin bir AI imzası bulunamadı"
)

// FileInfo describes the upload.
type FileInfo struct {
	Name     string
	Size     int64
	MimeType string
}

// Analyzer runs the scanners against one fingerprint table.
type Analyzer struct {
	table  *Table
	logger *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l.Named("ImageFingerprint")
		}
	}
}

// New builds an analyzer. A nil table uses the embedded one.
func New(table *Table, opts ...Option) *Analyzer {
	if table == nil {
		table = DefaultTable()
	}
	a := &Analyzer{table: table, logger: zap.NewNop()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// ModelName identifies the analyzer in results.
func (a *Analyzer) ModelName() string {
	return fmt.Sprintf("image-fingerprint-v%d", a.table.Version)
}

// Fingerprint runs the three scanners concurrently and combines them.
func (a *Analyzer) Fingerprint(ctx context.Context, data []byte, info FileInfo) (models.ImageFingerprint, error) {
	var meta, bin, size scan
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		meta = scanMetadata(data, a.table)
		return ctx.Err()
	})
	g.Go(func() error {
		bin = scanBinary(data, a.table)
		return ctx.Err()
	})
	g.Go(func() error {
		n := info.Size
		if n <= 0 {
			n = int64(len(data))
		}
		size = scanSize(data, n, info.Name, a.table)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return models.ImageFingerprint{}, err
	}
	return combine(meta, bin, size), nil
}

func combine(meta, bin, size scan) models.ImageFingerprint {
	score := float64(baseline + meta.points + bin.points + size.points)

	positive := 0
	for _, s := range []scan{meta, bin, size} {
		if s.points > 0 {
			positive++
		}
	}
	agreed := agreeingTool(meta, bin, size)
	switch {
	case agreed != "":
		score *= boostAgreeingTool
	case positive >= 2:
		score *= boostCategories
	}
	confidence := clamp(int(math.Round(score)), minConfidence, maxConfidence)

	// Agreeing votes only boost the score. A tool is named only by a direct
	// fingerprint match.
	tool := firstNonEmpty(size.tool, meta.tool, bin.tool)
	if tool != "" {
		confidence = max(confidence, namedToolFloor)
	} else if meta.generic {
		tool = UnknownTool
	}

	visual := make([]string, 0, len(bin.signals)+len(size.signals))
	visual = append(visual, bin.signals...)
	visual = append(visual, size.signals...)
	metadata := meta.signals
	if metadata == nil {
		metadata = []string{}
	}
	return models.ImageFingerprint{
		MetadataSignals: metadata,
		VisualSignals:   visual,
		DetectedTool:    tool,
		Confidence:      confidence,
	}
}

// agreeingTool returns a tool that at least two scanners point at.
func agreeingTool(scans ...scan) string {
	counts := map[string]int{}
	var order []string
	for _, s := range scans {
		for _, v := range s.votes {
			if counts[v] == 0 {
				order = append(order, v)
			}
			counts[v]++
		}
	}
	for _, v := range order {
		if counts[v] >= 2 {
			return v
		}
	}
	return ""
}

// Label maps a fingerprint to a verdict. A named tool is always AI.
func Label(fp models.ImageFingerprint) models.Label {
	if fp.DetectedTool != "" && fp.DetectedTool != UnknownTool {
		return models.LabelAI
	}
	switch {
	case fp.Confidence >= aiThreshold:
		return models.LabelAI
	case fp.Confidence <= humanThreshold:
		return models.LabelHuman
	default:
		return models.LabelUncertain
	}
}

// Analyze fingerprints the upload and builds the caller-facing result.
func (a *Analyzer) Analyze(ctx context.Context, id string, data []byte, info FileInfo) (models.FinalImageResult, error) {
	start := time.Now()
	fp, err := a.Fingerprint(ctx, data, info)
	if err != nil {
		return models.FinalImageResult{}, err
	}
	label := Label(fp)
	a.logger.Info("image analyzed",
		zap.String("file", info.Name),
		zap.Int64("size", info.Size),
		zap.String("tool", fp.DetectedTool),
		zap.Int("confidence", fp.Confidence),
	)
	return models.FinalImageResult{
		ID:               id,
		Confidence:       fp.Confidence,
		Label:            label,
		Explanation:      explain(fp, label),
		Sources:          imageSources(fp),
		Model:            a.ModelName(),
		Timestamp:        models.Timestamp(start),
		Fingerprint:      fp,
		FileName:         info.Name,
		FileSize:         info.Size,
		MimeType:         info.MimeType,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func explain(fp models.ImageFingerprint, label models.Label) string {
	n := len(fp.MetadataSignals) + len(fp.VisualSignals)
	var msg string
	switch {
	case fp.DetectedTool == UnknownTool:
		msg = "Görselde AI üretimine işaret eden meta veriler bulundu."
	case fp.DetectedTool != "":
		msg = fmt.Sprintf("Görselde %s aracına ait imzalar bulundu.", fp.DetectedTool)
	case label == models.LabelAI:
		msg = "Görselin dosya yapısı AI üretimi görsellerle uyumlu."
	case label == models.LabelHuman:
		msg = "Görselde gerçek bir kameraya işaret eden izler var."
	default:
		msg = "Görselin kaynağı kesin olarak belirlenemedi."
	}
	return fmt.Sprintf("%s (%d sinyal, %%%d güven)", msg, n, fp.Confidence)
}

func imageSources(fp models.ImageFingerprint) []string {
	out := make([]string, 0, models.MaxSources)
	out = append(out, fp.MetadataSignals...)
	out = append(out, fp.VisualSignals...)
	if len(out) > models.MaxSources {
		out = out[:models.MaxSources]
	}
	if len(out) == 0 {
		out = append(out, noSignalSource)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
