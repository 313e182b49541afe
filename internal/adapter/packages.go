package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

// Package item categories.
const (
	PackageCategoryBloatware = "Bloatware"
	PackageCategorySystem    = "System"
	PackageCategoryApp       = "Application"
)

const listPackagesScript = "Get-AppxPackage | Select-Object Name, PackageFullName, Version, Publisher | ConvertTo-Json"

// PackagesAdapter lists and removes installed application packages via PowerShell.
type PackagesAdapter struct {
	runner domain.CommandRunner
	logger *zap.Logger
}

// NewPackagesAdapter creates a package inventory adapter.
func NewPackagesAdapter(runner domain.CommandRunner, logger *zap.Logger) *PackagesAdapter {
	return &PackagesAdapter{runner: runner, logger: logger}
}

func (a *PackagesAdapter) Domain() domain.Domain {
	return domain.DomainPackages
}

func (a *PackagesAdapter) powershell(ctx context.Context, script string) (domain.CommandResult, error) {
	return a.runner.Run(ctx, "powershell", "-NoProfile", "-Command", script)
}

// List returns installed packages, bloatware first then by name.
func (a *PackagesAdapter) List(ctx context.Context) ([]domain.InstalledPackage, error) {
	res, err := a.powershell(ctx, listPackagesScript)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, toolError("Get-AppxPackage", "", res)
	}
	pkgs, err := ParsePackages(res.Stdout)
	if err != nil {
		return nil, err
	}
	SortPackages(pkgs)
	return pkgs, nil
}

// Bloatware returns only the packages flagged as bloatware.
func (a *PackagesAdapter) Bloatware(ctx context.Context) ([]domain.InstalledPackage, error) {
	pkgs, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	out := pkgs[:0]
	for _, p := range pkgs {
		if p.IsBloatware {
			out = append(out, p)
		}
	}
	return out, nil
}

// ParsePackages decodes ConvertTo-Json output, which is a single object
// for one package and an array otherwise.
func ParsePackages(out string) ([]domain.InstalledPackage, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	if !gjson.Valid(out) {
		return nil, domain.NewOpError("parse Get-AppxPackage", "", domain.ErrMalformedOutput, truncate(out, 120), nil)
	}

	doc := gjson.Parse(out)
	var rows []gjson.Result
	switch {
	case doc.IsArray():
		rows = doc.Array()
	case doc.IsObject():
		rows = []gjson.Result{doc}
	default:
		return nil, domain.NewOpError("parse Get-AppxPackage", "", domain.ErrMalformedOutput, "expected object or array", nil)
	}

	pkgs := make([]domain.InstalledPackage, 0, len(rows))
	for _, row := range rows {
		name := row.Get("Name").String()
		if name == "" {
			continue
		}
		pkgs = append(pkgs, domain.InstalledPackage{
			Name:        name,
			FullName:    row.Get("PackageFullName").String(),
			Version:     row.Get("Version").String(),
			Publisher:   row.Get("Publisher").String(),
			IsBloatware: catalog.IsBloatware(name),
			IsCritical:  catalog.IsCritical(name),
		})
	}
	return pkgs, nil
}

// SortPackages orders bloatware first, then by case-insensitive name.
func SortPackages(pkgs []domain.InstalledPackage) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		if pkgs[i].IsBloatware != pkgs[j].IsBloatware {
			return pkgs[i].IsBloatware
		}
		return strings.ToLower(pkgs[i].Name) < strings.ToLower(pkgs[j].Name)
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Remove uninstalls one package. Critical packages are refused.
func (a *PackagesAdapter) Remove(ctx context.Context, fullName string) error {
	if catalog.IsCritical(fullName) {
		return domain.NewOpError("Remove-AppxPackage", fullName, domain.ErrUnsupported, "critical system package", nil)
	}
	script := fmt.Sprintf("Remove-AppxPackage -Package '%s'", strings.ReplaceAll(fullName, "'", "''"))
	res, err := a.powershell(ctx, script)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return toolError("Remove-AppxPackage", fullName, res)
	}
	a.logger.Info("package removed", zap.String("package", fullName))
	return nil
}

// Scan lists installed packages as items. An installed package is never blocked.
func (a *PackagesAdapter) Scan(ctx context.Context) ([]domain.ConfigItem, error) {
	pkgs, err := a.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s scan: %w", a.Domain(), err)
	}
	items := make([]domain.ConfigItem, 0, len(pkgs))
	for _, p := range pkgs {
		category := PackageCategoryApp
		switch {
		case p.IsCritical:
			category = PackageCategorySystem
		case p.IsBloatware:
			category = PackageCategoryBloatware
		}
		items = append(items, domain.ConfigItem{
			ID:          p.FullName,
			DisplayName: p.Name,
			Description: strings.TrimSpace(p.Publisher + " " + p.Version),
			Category:    category,
		})
	}
	return items, nil
}

// Apply removes packages (Blocked). Reinstalling (Allowed) is unsupported.
func (a *PackagesAdapter) Apply(ctx context.Context, items []domain.ConfigItem, desired domain.DesiredState, progress domain.ProgressFunc) domain.BulkResult {
	if desired == domain.Allowed {
		return applyEach(ctx, a.logger, a.Domain(), items, desired, progress, unsupportedItem)
	}
	return applyEach(ctx, a.logger, a.Domain(), items, desired, progress, func(ctx context.Context, item domain.ConfigItem) error {
		return a.Remove(ctx, item.ID)
	})
}

// Ensure PackagesAdapter implements domain.Adapter.
var _ domain.Adapter = (*PackagesAdapter)(nil)
