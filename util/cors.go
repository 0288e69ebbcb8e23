package util

import "strings"

// MakeAllowedOriginValidator builds an origin check for CORS.
// Supports "*" (allow everything), exact matches, scheme-less host
// matches, and wildcard patterns like "https://*.example.com".
func MakeAllowedOriginValidator(allowedOrigins []string) func(origin string) bool {
	for _, o := range allowedOrigins {
		if o == "*" {
			return func(origin string) bool {
				return true
			}
		}
	}

	return func(origin string) bool {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			return false
		}

		for _, allowed := range allowedOrigins {
			allowed = strings.TrimSpace(allowed)

			if allowed == origin {
				return true
			}

			originHost := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
			if originHost == allowed {
				return true
			}

			if strings.Contains(allowed, "*") {
				prefix := strings.Split(allowed, "*")[0]
				suffix := strings.Split(allowed, "*")[1]
				if strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
					return true
				}
			}
		}

		return false
	}
}
