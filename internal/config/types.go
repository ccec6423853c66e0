package config

// Shelly holds the top-level listener defaults.
type Shelly struct {
	// HTTPPort is the port the ephemeral file server binds to.
	HTTPPort int `yaml:"default_http_svr"`
	// Host is the listen interface used when -l is omitted. Empty means prompt.
	Host string `yaml:"listen_host,omitempty"`
	// Port is the listen port used when -p is omitted. Zero means prompt.
	Port int `yaml:"listen_port,omitempty"`
}

// Listener kinds for Shell.Listener.
const (
	ListenerNetcat   = "nc"
	ListenerSocatRaw = "socat_raw"
)

// Shell describes one reverse shell flavour: the payloads printed for the
// operator, the toolbox artifacts served before listening and the listener
// used to catch it.
type Shell struct {
	Listener  string   `yaml:"listener,omitempty"`
	Serve     []string `yaml:"serve,omitempty"`
	Templates []string `yaml:"templates"`
}

// Artifact is one architecture-specific toolbox binary.
type Artifact struct {
	Filename string `yaml:"filename"`
	Download string `yaml:"download,omitempty"`
}

// Command is an external program invocation whose arguments may contain
// template placeholders.
type Command struct {
	Path string   `yaml:"command"`
	Args []string `yaml:"args"`
}

// Upgrade configures the remote commands sent during protocol upgrades.
type Upgrade struct {
	// PTYCommand replaces the remote shell with a pty-backed one.
	PTYCommand string `yaml:"pty_command"`
	// SocatCommand makes the remote peer fetch the relay binary and
	// connect back to the raw relay port.
	SocatCommand string `yaml:"socat_command"`
	// Binary is the public name the remote peer fetches.
	Binary string `yaml:"socat_binary"`
	// Artifacts are the toolbox entries served during the raw upgrade.
	Artifacts []string `yaml:"artifacts"`
	// GraceMillis is how long to wait for the remote peer to connect back.
	GraceMillis int `yaml:"grace_ms"`
}

// Config represents ~/.shelly/shelly.yaml (or the legacy shelly.json).
type Config struct {
	Shelly   Shelly                         `yaml:"shelly"`
	Shells   map[string]Shell               `yaml:"shells,omitempty"`
	Toolbox  map[string]map[string]Artifact `yaml:"toolbox,omitempty"`
	Upgrade  Upgrade                        `yaml:"upgrade"`
	Listener Command                        `yaml:"listener"`
	Relay    Command                        `yaml:"relay"`
	// RawListener is the direct listener used by socat_raw shells.
	RawListener Command `yaml:"raw_listener"`
}
