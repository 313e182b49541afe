//go:build !windows

package infra

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// UnsupportedServiceController is used on hosts without a service control manager.
type UnsupportedServiceController struct{}

// NewServiceController returns a controller that reports the platform as unsupported.
func NewServiceController(logger *zap.Logger) domain.ServiceController {
	return UnsupportedServiceController{}
}

func (UnsupportedServiceController) StartType(name string) (domain.StartType, error) {
	return domain.StartOther, domain.NewOpError("query service config", name, domain.ErrUnsupported, "", nil)
}

func (UnsupportedServiceController) Disable(name string) error {
	return domain.NewOpError("update service config", name, domain.ErrUnsupported, "", nil)
}

func (UnsupportedServiceController) Enable(name string) error {
	return domain.NewOpError("update service config", name, domain.ErrUnsupported, "", nil)
}
