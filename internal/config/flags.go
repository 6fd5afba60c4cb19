package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"exclude":          "exclusions",
	"exclude-cwd":      "exclude_options.cwd",
	"folder":           "folder",
	"force":            "force",
	"interval":         "interval",
	"workdir":          "workdir",
	"concurrency":      "concurrency",
	"dryrun":           "dryrun",
	"quiet":            "quiet",
	"verbose":          "verbose",
	"log-file":         "log_file",
	"plan-json-file":   "plan_json_file",
	"result-json-file": "result_json_file",
	"host":             "auth.host",
	"port":             "auth.port",
	"username":         "auth.username",
	"password":         "auth.password",
	"private-key":      "auth.private_key",
	"passphrase":       "auth.passphrase",
	"known-hosts":      "auth.known_hosts",
	"profile":          "auth.profile",
	"region":           "auth.region",
	"endpoint":         "auth.endpoint",
	"path-style":       "auth.path_style",
	"access-key":       "auth.access_key",
	"secret-key":       "auth.secret_key",
}

// RegisterGlobalFlags adds the flags shared by every command.
func RegisterGlobalFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringP("config", "c", "", "Config file (yaml, json or toml)")
	f.String("folder", "", "Remote folder holding the lock and manifest (default \"__atm__\")")
	f.Bool("quiet", false, "Suppress non-error output")
	f.BoolP("verbose", "v", false, "Enable debug logging")
	f.String("log-file", "", "Also write debug logs to this file (rotated)")

	f.String("host", "", "SSH host; selects the SFTP transport for plain destinations")
	f.Int("port", 0, "SSH port (default 22)")
	f.String("username", "", "SSH username")
	f.String("password", "", "SSH password")
	f.String("private-key", "", "SSH private key file")
	f.String("passphrase", "", "Passphrase for the SSH private key")
	f.String("known-hosts", "", "known_hosts file used to verify the SSH host key")
	f.String("profile", "", "AWS profile to use")
	f.String("region", "", "AWS region (uses default if not specified)")
	f.String("endpoint", "", "Custom S3 endpoint URL")
	f.Bool("path-style", false, "Use path-style S3 addressing")
	f.String("access-key", "", "S3 access key (default: AWS credential chain)")
	f.String("secret-key", "", "S3 secret key")
}

// RegisterSyncFlags adds the flags of the sync command.
func RegisterSyncFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("exclude", DefaultExclusions, "Exclude patterns (multiple allowed)")
	f.String("exclude-cwd", "", "Directory exclude patterns are evaluated against (default: src)")
	f.Bool("force", false, "Sync even when the destination is locked")
	f.String("interval", "", "Keep local working areas this long; milliseconds or a duration such as 360h or 15d")
	f.String("workdir", "", "Root of the local working areas")
	f.Int("concurrency", 1, "Number of concurrent uploads")
	f.Bool("dryrun", false, "Shows operations without executing")
	f.String("plan-json-file", "", "Path to output plan as JSON file")
	f.String("result-json-file", "", "Path to output result as JSON file")
}

// BindFlags binds every flag defined on cmd to its configuration key.
func BindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}
