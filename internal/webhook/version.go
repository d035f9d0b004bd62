package webhook

import "golang.org/x/mod/semver"

// CompareVersion orders two API versions. Semver-like values are compared
// as semver; anything else (Shopify's YYYY-MM) compares lexically.
func CompareVersion(a, b string) int {
	na, nb := normalizeVersion(a), normalizeVersion(b)
	if !semver.IsValid(na) || !semver.IsValid(nb) {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	return semver.Compare(na, nb)
}

// VersionSupported reports whether a delivery at got can be handled by code
// written against supported. An empty got is assumed supported.
func VersionSupported(supported, got string) bool {
	if got == "" {
		return true
	}
	return CompareVersion(got, supported) <= 0
}

func normalizeVersion(v string) string {
	if v == "" {
		return "v0.0.0"
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}
