// SPDX-License-Identifier: MIT
package gitx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Output phrases that identify an SSH authentication or host-key
// failure. Matched case-insensitively against combined command output.
var authSignatures = []string{
	"host key verification failed",
	"permission denied (publickey",
	"could not read from remote repository",
}

// HasAuthSignature reports whether the output carries one of the known
// SSH auth/host-key failure phrases.
func HasAuthSignature(output string) bool {
	lower := strings.ToLower(output)
	for _, sig := range authSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

// sshRemotePattern matches the two SSH transport forms git produces:
// scp-like "git@host:path" and URL-style "ssh://git@host/path".
var sshRemotePattern = regexp.MustCompile(`ssh://git@([A-Za-z0-9.-]+)/|git@([A-Za-z0-9.-]+):`)

// SSHHosts extracts candidate hostnames from SSH transport references in
// the text, in order of first appearance, deduplicated. The hostname
// charset is restricted so extracted values are safe to place on a git
// command line.
func SSHHosts(text string) []string {
	var hosts []string
	seen := map[string]bool{}
	for _, match := range sshRemotePattern.FindAllStringSubmatch(text, -1) {
		host := match[1]
		if host == "" {
			host = match[2]
		}
		if !validHostname(host) || seen[host] {
			continue
		}
		seen[host] = true
		hosts = append(hosts, host)
	}
	return hosts
}

func validHostname(host string) bool {
	if host == "" || strings.Trim(host, ".-") == "" {
		return false
	}
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}

// fallbackSeparator joins both attempts' output when the HTTPS retry
// also fails, so the operator sees the original and the fallback error.
const fallbackSeparator = "--- retried with https rewrite ---"

// FallbackRunner wraps a Runner with a one-shot HTTPS retry for SSH
// auth and host-key failures. The retry maps git@<host>: and
// ssh://git@<host>/ transports onto https://<host>/ through transient
// -c configuration; nothing is written to the repository config, and a
// failed retry is never retried again.
type FallbackRunner struct {
	// Inner executes the actual commands.
	Inner Runner
}

// Run implements Runner.
func (f *FallbackRunner) Run(ctx context.Context, dir string, args ...string) Result {
	first := f.Inner.Run(ctx, dir, args...)
	if first.OK() || !HasAuthSignature(first.Output) {
		return first
	}
	hosts := f.hostCandidates(ctx, dir, first.Output)
	if len(hosts) == 0 {
		return first
	}
	second := f.Inner.Run(ctx, dir, append(rewriteArgs(hosts), args...)...)
	if second.OK() {
		return second
	}
	second.Output = first.Output + "\n" + fallbackSeparator + "\n" + second.Output
	return second
}

// hostCandidates scans, in order: the failed output, the configured
// remotes, then the recorded submodule URLs — stopping at the first
// source that yields at least one host.
func (f *FallbackRunner) hostCandidates(ctx context.Context, dir, output string) []string {
	if hosts := SSHHosts(output); len(hosts) > 0 {
		return hosts
	}
	if res := ListRemotes(ctx, f.Inner, dir); res.OK() {
		if hosts := SSHHosts(res.Output); len(hosts) > 0 {
			return hosts
		}
	}
	if data, err := os.ReadFile(filepath.Join(dir, ".gitmodules")); err == nil {
		if hosts := SSHHosts(string(data)); len(hosts) > 0 {
			return hosts
		}
	}
	return nil
}

func rewriteArgs(hosts []string) []string {
	args := make([]string, 0, len(hosts)*4)
	for _, host := range hosts {
		args = append(args,
			"-c", fmt.Sprintf("url.https://%s/.insteadOf=git@%s:", host, host),
			"-c", fmt.Sprintf("url.https://%s/.insteadOf=ssh://git@%s/", host, host),
		)
	}
	return args
}
