package config

// SiteConfig holds site-specific settings for a single host.
// This allows customizing the requests webmirror sends per site, for
// example to mirror a members-only area behind basic auth or a session
// cookie.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when mirroring this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// User and Password are HTTP basic credentials for this site.
	// They override the --auth-user/--auth-password flags.
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`

	// UserAgent overrides the global User-Agent for this site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// ExtraHosts are additional hosts allowed by the scope filter when
	// this site is the seed, for example a CDN host serving the site's
	// static assets.
	ExtraHosts []string `yaml:"extraHosts,omitempty"`
}

// File represents the structure of the .webmirror configuration file.
type File struct {
	// Sites maps host names to their site-specific configurations.
	// Keys are bare hosts without a scheme (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains settings applied to every site unless overridden
	// in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific host,
// merging the site-specific configuration over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.User != "" {
		result.User = siteConfig.User
	}
	if siteConfig.Password != "" {
		result.Password = siteConfig.Password
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if len(siteConfig.Headers) > 0 {
		// Merge into a fresh map; result.Headers still aliases the
		// defaults map and must not be written through.
		merged := make(map[string]string, len(result.Headers)+len(siteConfig.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range siteConfig.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}
	if len(siteConfig.ExtraHosts) > 0 {
		result.ExtraHosts = siteConfig.ExtraHosts
	}

	return result
}
