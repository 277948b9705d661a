//go:build !windows

package manager

import (
	"os/exec"
	"syscall"
	"time"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) {
	pid := cmd.Process.Pid
	pgid, err := syscall.Getpgid(pid)

	if err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGTERM)

		time.Sleep(50 * time.Millisecond)
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	}

	_ = cmd.Process.Kill()
}
