//go:build windows

package infra

import (
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// SCMServiceController implements domain.ServiceController via the service control manager.
type SCMServiceController struct {
	logger *zap.Logger
}

// NewServiceController creates a controller bound to the local SCM.
func NewServiceController(logger *zap.Logger) domain.ServiceController {
	return &SCMServiceController{logger: logger}
}

// StartType opens the SCM with connect-only rights so scans work unelevated.
func (c *SCMServiceController) StartType(name string) (domain.StartType, error) {
	h, err := windows.OpenSCManager(nil, nil, windows.SC_MANAGER_CONNECT)
	if err != nil {
		return domain.StartOther, classifyWinErr("connect service manager", name, err)
	}
	m := &mgr.Mgr{Handle: h}
	defer m.Disconnect()

	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return domain.StartOther, domain.NewOpError("open service", name, domain.ErrUnexpected, "", err)
	}
	sh, err := windows.OpenService(h, namePtr, windows.SERVICE_QUERY_CONFIG)
	if err != nil {
		return domain.StartOther, classifyWinErr("open service", name, err)
	}
	s := &mgr.Service{Name: name, Handle: sh}
	defer s.Close()

	cfg, err := s.Config()
	if err != nil {
		return domain.StartOther, classifyWinErr("query service config", name, err)
	}
	return toStartType(cfg.StartType), nil
}

// Disable stops the service and sets its start type to Disabled.
func (c *SCMServiceController) Disable(name string) error {
	return c.reconfigure(name, mgr.StartDisabled, func(s *mgr.Service) {
		if _, err := s.Control(svc.Stop); err != nil {
			c.logger.Debug("service stop ignored", zap.String("service", name), zap.Error(err))
		}
	}, nil)
}

// Enable sets the service to Automatic and starts it.
func (c *SCMServiceController) Enable(name string) error {
	return c.reconfigure(name, mgr.StartAutomatic, nil, func(s *mgr.Service) {
		if err := s.Start(); err != nil {
			c.logger.Debug("service start ignored", zap.String("service", name), zap.Error(err))
		}
	})
}

func (c *SCMServiceController) reconfigure(name string, startType uint32, before, after func(*mgr.Service)) error {
	m, err := mgr.Connect()
	if err != nil {
		return classifyWinErr("connect service manager", name, err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(name)
	if err != nil {
		return classifyWinErr("open service", name, err)
	}
	defer s.Close()

	if before != nil {
		before(s)
	}

	cfg, err := s.Config()
	if err != nil {
		return classifyWinErr("query service config", name, err)
	}
	cfg.StartType = startType
	if err := s.UpdateConfig(cfg); err != nil {
		return classifyWinErr("update service config", name, err)
	}

	if after != nil {
		after(s)
	}
	return nil
}

func toStartType(t uint32) domain.StartType {
	switch t {
	case mgr.StartAutomatic:
		return domain.StartAutomatic
	case mgr.StartManual:
		return domain.StartManual
	case mgr.StartDisabled:
		return domain.StartDisabled
	default:
		return domain.StartOther
	}
}

// Ensure SCMServiceController implements domain.ServiceController.
var _ domain.ServiceController = (*SCMServiceController)(nil)
