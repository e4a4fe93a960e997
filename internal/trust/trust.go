// Package trust decides which senders skip classification.
package trust

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker matches sender addresses against a list of trusted domains.
// A listed domain also trusts its subdomains.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a checker; blank entries are ignored
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		domain = strings.TrimPrefix(domain, "*.")
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 {
		logger.Info("Initialized trusted domains", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsTrusted reports whether the domain of address is trusted.
// address may carry a display name, as in `"Bank" <alerts@bank.example>`.
func (c *Checker) IsTrusted(address string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain := Domain(address)
	if domain == "" {
		return false
	}

	for _, trusted := range c.domains {
		if domain == trusted || strings.HasSuffix(domain, "."+trusted) {
			c.logger.Debug("Sender domain is trusted",
				zap.String("domain", domain),
				zap.String("address", address))
			return true
		}
	}
	return false
}

// Domain returns the lowercased domain of address, or "" when it has none
func Domain(address string) string {
	address = strings.TrimSpace(address)
	if parsed, err := mail.ParseAddress(address); err == nil {
		address = parsed.Address
	}

	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimRight(address[at+1:], ".>"))
}
