package infra

import (
	"context"
	"fmt"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// Name returns the executable name of pid.
func (pm *ProcessManagerImpl) Name(ctx context.Context, pid int) (string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return "", domain.NewOpError("lookup process", fmt.Sprint(pid), domain.ErrNotFound, "", err)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		// Process may have exited or be protected
		return "", domain.NewOpError("read process name", fmt.Sprint(pid), domain.ErrUnexpected, "", err)
	}
	return name, nil
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)

// ConnectionListerImpl lists inet sockets through gopsutil.
type ConnectionListerImpl struct{}

// NewConnectionLister creates a lister for TCP and UDP over IPv4 and IPv6.
func NewConnectionLister() domain.ConnectionLister {
	return &ConnectionListerImpl{}
}

// Connections returns every inet socket visible to the caller.
func (l *ConnectionListerImpl) Connections(ctx context.Context) ([]domain.RawConnection, error) {
	stats, err := psnet.ConnectionsWithContext(ctx, "inet")
	if err != nil {
		return nil, domain.NewOpError("list connections", "", domain.ErrUnexpected, "", err)
	}

	conns := make([]domain.RawConnection, 0, len(stats))
	for _, s := range stats {
		conns = append(conns, domain.RawConnection{
			PID:        int(s.Pid),
			LocalIP:    s.Laddr.IP,
			LocalPort:  s.Laddr.Port,
			RemoteIP:   s.Raddr.IP,
			RemotePort: s.Raddr.Port,
			Status:     s.Status,
		})
	}
	return conns, nil
}

// Ensure ConnectionListerImpl implements domain.ConnectionLister.
var _ domain.ConnectionLister = (*ConnectionListerImpl)(nil)
