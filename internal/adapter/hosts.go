package adapter

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

// HostsBlock maintains the marked block of sink entries in the hosts file.
type HostsBlock struct {
	fs     domain.FileSystemManager
	path   string
	logger *zap.Logger
}

// NewHostsBlock creates a writer for the hosts file at path.
func NewHostsBlock(fs domain.FileSystemManager, path string, logger *zap.Logger) *HostsBlock {
	return &HostsBlock{fs: fs, path: path, logger: logger}
}

// Path returns the hosts file path.
func (h *HostsBlock) Path() string {
	return h.path
}

// Apply replaces any existing block with one entry per endpoint.
func (h *HostsBlock) Apply(endpoints []domain.FirewallEndpoint) error {
	content, err := h.read()
	if err != nil {
		return err
	}
	updated, err := RenderHostsBlock(content, endpoints)
	if err != nil {
		return err
	}
	if updated == content {
		h.logger.Debug("hosts block already current", zap.String("path", h.path))
		return nil
	}
	if err := h.fs.WriteFileAtomic(h.path, []byte(updated)); err != nil {
		return err
	}
	h.logger.Info("hosts block written", zap.String("path", h.path), zap.Int("entries", len(endpoints)))
	return nil
}

// Remove strips the block, leaving the rest of the file intact.
func (h *HostsBlock) Remove() error {
	content, err := h.read()
	if err != nil {
		return err
	}
	updated, err := StripHostsBlock(content)
	if err != nil {
		return err
	}
	if updated == content {
		return nil
	}
	if err := h.fs.WriteFileAtomic(h.path, []byte(updated)); err != nil {
		return err
	}
	h.logger.Info("hosts block removed", zap.String("path", h.path))
	return nil
}

// IsApplied reports whether a complete block is present.
func (h *HostsBlock) IsApplied() (bool, error) {
	content, err := h.read()
	if err != nil {
		return false, err
	}
	return strings.Contains(content, catalog.HostsMarkerStart) && strings.Contains(content, catalog.HostsMarkerEnd), nil
}

func (h *HostsBlock) read() (string, error) {
	data, err := h.fs.ReadFile(h.path)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// lineEnding returns "\r\n" when content already uses it.
func lineEnding(content string) string {
	if strings.Contains(content, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// StripHostsBlock removes every complete marked block. A start marker
// without a matching end marker is ErrMalformedOutput.
func StripHostsBlock(content string) (string, error) {
	nl := lineEnding(content)
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	kept := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != catalog.HostsMarkerStart {
			kept = append(kept, lines[i])
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == catalog.HostsMarkerEnd {
				end = j
				break
			}
		}
		if end < 0 {
			return "", domain.NewOpError("parse hosts", "", domain.ErrMalformedOutput, "block start marker without end marker", nil)
		}
		i = end
	}

	// Drop trailing blank lines left by the removed block
	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}
	if len(kept) == 0 {
		return "", nil
	}
	return strings.Join(kept, nl) + nl, nil
}

// RenderHostsBlock returns content with a fresh block appended after
// stripping any prior block. Rendering twice equals rendering once.
func RenderHostsBlock(content string, endpoints []domain.FirewallEndpoint) (string, error) {
	base, err := StripHostsBlock(content)
	if err != nil {
		return "", err
	}
	nl := lineEnding(content)

	var b strings.Builder
	b.WriteString(base)
	if base != "" {
		b.WriteString(nl)
	}
	b.WriteString(catalog.HostsMarkerStart + nl)
	for _, ep := range endpoints {
		b.WriteString(catalog.HostsSinkAddress + " " + ep.Domain + nl)
	}
	b.WriteString(catalog.HostsMarkerEnd + nl)
	return b.String(), nil
}
