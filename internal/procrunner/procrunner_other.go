//go:build !unix

package procrunner

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

func sigterm(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func sigkill(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
