package scoring

// Built-in heuristic tables. Every table can be overridden from the scoring
// section of the config file; empty config values fall back to these.

// defaultAuthorityTitles marks canonical configuration/installation pages.
// A title containing one of these gets the strongest authority boost.
var defaultAuthorityTitles = []string{
	"network configuration",
	"installation guide",
	"getting started",
	"general recommendations",
	"system maintenance",
}

// defaultGuidePatterns marks general guide-style pages, the weaker tier.
var defaultGuidePatterns = []string{
	"guide",
	"tutorial",
	"howto",
	"beginners",
}

// defaultTopicClusters maps colloquial query terms to technical synonyms.
// A result whose title or leading content mentions a cluster term is
// considered on-topic for the colloquial query.
var defaultTopicClusters = map[string][]string{
	"wifi":      {"wireless", "network", "iwctl", "networkmanager"},
	"wireless":  {"wifi", "network", "iwctl", "networkmanager"},
	"internet":  {"network", "ethernet", "dhcp", "networkmanager"},
	"sound":     {"audio", "alsa", "pulseaudio", "pipewire"},
	"audio":     {"sound", "alsa", "pulseaudio", "pipewire"},
	"bluetooth": {"bluez", "bluetoothctl"},
	"graphics":  {"xorg", "wayland", "nvidia", "mesa", "video"},
	"display":   {"xorg", "wayland", "monitor", "resolution"},
	"boot":      {"grub", "bootloader", "uefi", "systemd-boot"},
	"packages":  {"pacman", "aur", "makepkg", "repository"},
	"printer":   {"cups", "printing"},
}

// defaultIndicatorWords signal comprehensive documentation when several of
// them appear in a page title or section path.
var defaultIndicatorWords = []string{
	"configuration",
	"setup",
	"troubleshooting",
	"guide",
	"installation",
	"usage",
	"examples",
	"management",
}

// defaultActionVerbs signal actionable, instructional content.
var defaultActionVerbs = []string{
	"install",
	"configure",
	"enable",
	"disable",
	"run",
	"edit",
	"create",
	"add",
	"set",
	"start",
	"restart",
	"connect",
}

// defaultOverviewWords classify a query as overview-seeking.
var defaultOverviewWords = []string{
	"how",
	"setup",
	"set",
	"configure",
	"guide",
	"install",
	"start",
	"begin",
	"overview",
}

// defaultShellTokens are command fragments whose presence marks content as
// containing runnable instructions.
var defaultShellTokens = []string{
	"```",
	"$ ",
	"# ",
	"sudo ",
	"systemctl ",
	"pacman ",
	"iwctl",
	"nmcli",
}
