// Package config loads the difm client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/difm/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or blank, use defaults
//  5. Apply DIFM_API_KEY, DIFM_BASE_URL and DIFM_USER_AGENT from the environment
//
// # TOML Format
//
//	base_url = "http://api.audioaddict.com/v1/di/"
//	api_key = "..."
//	user_agent = "difm/0.1"
//	timeout = "10s"
//	requests_per_second = 2
//	style_filter_ids = [5]
//	hidden_filter_ids = [67]
//	prefs_path = "~/.config/difm/prefs.toml"
//	credentials_path = "~/.config/difm/credentials.toml"
//
// Every field is optional. No API key ships with the client; catalog fetches
// fail with a configuration error until one is set in the file or the
// environment.
//
// An explicitly empty filter list (style_filter_ids = []) disables that
// classification; omitting the key keeps the defaults.
//
// # Path Expansion
//
// The config path, prefs_path and credentials_path accept absolute,
// relative, and tilde paths. They are returned as absolute paths.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, TOML syntax errors, an unparsable or non-positive timeout,
// and a negative requests_per_second. A missing file is NOT an error.
package config
