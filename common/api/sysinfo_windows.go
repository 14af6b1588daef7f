//go:build windows

package api

func defaultShell() string {
	return "cmd.exe"
}
