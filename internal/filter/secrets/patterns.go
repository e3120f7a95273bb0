package secrets

import "regexp"

// Pattern defines a secret detection pattern.
type Pattern struct {
	Name  string
	Regex *regexp.Regexp
}

// DefaultPatterns returns the built-in secret detection patterns.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:  "OpenAI API Key",
			Regex: regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),
		},
		{
			Name:  "Anthropic API Key",
			Regex: regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
		},
		{
			Name:  "AWS Access Key",
			Regex: regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		},
		{
			Name:  "GitHub Token",
			Regex: regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
		},
		{
			Name:  "Stripe Secret Key",
			Regex: regexp.MustCompile(`sk_live_[A-Za-z0-9]{24,}`),
		},
		{
			Name:  "Private Key",
			Regex: regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA )?PRIVATE KEY-----`),
		},
		{
			Name:  "Connection String",
			Regex: regexp.MustCompile(`(?:postgres|mysql|mongodb|redis)://[^\s]+`),
		},
		{
			Name:  "JWT Token",
			Regex: regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`),
		},
	}
}
