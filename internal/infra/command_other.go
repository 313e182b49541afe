//go:build !windows

package infra

import "os/exec"

func hideWindow(cmd *exec.Cmd) {}
