//go:build unix

package procrunner

import (
	"os/exec"
	"syscall"
)

// setProcessGroup places the child in its own process group so that a
// timeout or cancellation can signal the whole group, not just the direct
// child (which may have spawned its own children, e.g. ansible-playbook
// forking ansible-connection processes).
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, sig)
}

func sigterm(cmd *exec.Cmd) { signalGroup(cmd, syscall.SIGTERM) }
func sigkill(cmd *exec.Cmd) { signalGroup(cmd, syscall.SIGKILL) }
