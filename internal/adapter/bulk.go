// Package adapter implements the backend adapters: telemetry, firewall,
// permissions, cleanup and packages. No adapter depends on another.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// itemFunc applies the desired state to one item.
type itemFunc func(ctx context.Context, item domain.ConfigItem) error

// applyEach runs fn over items in order. Every item is attempted;
// ErrNotFound counts as success.
func applyEach(
	ctx context.Context,
	logger *zap.Logger,
	d domain.Domain,
	items []domain.ConfigItem,
	desired domain.DesiredState,
	progress domain.ProgressFunc,
	fn itemFunc,
) domain.BulkResult {
	var result domain.BulkResult
	total := len(items)

	for i, item := range items {
		if progress != nil {
			progress(i+1, total, item.DisplayName)
		}

		err := fn(ctx, item)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("item absent, treated as applied",
				zap.String("domain", string(d)),
				zap.String("item", item.ID),
				zap.Error(err))
			err = nil
		}
		result.Add(item.ID, err)

		if err != nil {
			bulkCounter(d, "failure").Inc()
			logger.Warn("apply failed",
				zap.String("domain", string(d)),
				zap.String("item", item.ID),
				zap.String("desired", desired.String()),
				zap.Error(err))
			continue
		}
		bulkCounter(d, "success").Inc()
		logger.Info("applied",
			zap.String("domain", string(d)),
			zap.String("item", item.ID),
			zap.String("desired", desired.String()))
	}

	return result
}

func bulkCounter(d domain.Domain, outcome string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`privguard_bulk_items_total{domain=%q,outcome=%q}`, d, outcome))
}

func unsupportedItem(ctx context.Context, item domain.ConfigItem) error {
	return domain.NewOpError("apply", item.ID, domain.ErrUnsupported, "desired state cannot be reached", nil)
}

func unknownItem(item domain.ConfigItem) error {
	return domain.Unexpectedf("unknown item %q", item.ID)
}

// enumerationError returns an adapter-level error when every item failed
// with ErrUnsupported, meaning the backend is not available at all.
func enumerationError(d domain.Domain, items []domain.ConfigItem, errs []error) error {
	if len(items) == 0 || len(errs) != len(items) {
		return nil
	}
	for _, err := range errs {
		if !errors.Is(err, domain.ErrUnsupported) {
			return nil
		}
	}
	return fmt.Errorf("%s scan: %w", d, errs[0])
}

// toolError classifies a non-zero exit of an OS utility from its output.
func toolError(op, item string, res domain.CommandResult) error {
	diag := res.Diagnostic()
	lower := strings.ToLower(diag)
	kind := domain.ErrExternalTool
	switch {
	case strings.Contains(lower, "access is denied"),
		strings.Contains(lower, "requires elevation"),
		strings.Contains(lower, "run as administrator"),
		strings.Contains(lower, "0x80070005"):
		kind = domain.ErrPermissionDenied
	case strings.Contains(lower, "cannot find"),
		strings.Contains(lower, "does not exist"),
		strings.Contains(lower, "no rules match"),
		strings.Contains(lower, "0x80073cf1"):
		kind = domain.ErrNotFound
	}
	if diag == "" {
		diag = fmt.Sprintf("exit code %d", res.ExitCode)
	}
	return domain.NewOpError(op, item, kind, diag, nil)
}
