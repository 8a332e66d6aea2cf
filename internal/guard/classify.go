package guard

import (
	"strings"

	"github.com/avelinek/storegate/internal/config"
)

// Class is a route classification.
type Class string

const (
	ClassStatic        Class = "static"
	ClassAdmin         Class = "admin"
	ClassUserProtected Class = "userProtected"
	ClassAuth          Class = "auth"
	ClassPublic        Class = "public"
	ClassUnclassified  Class = "unclassified"
)

// imageSuffixes are asset extensions exempt from the guard regardless of
// path prefix.
var imageSuffixes = []string{
	".ico", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".avif",
}

// Classifier partitions request paths by prefix lists. The lists are
// small and non-overlapping by convention; on overlap, admin and
// user-protected win over auth, which wins over public.
type Classifier struct {
	admin          []string
	userProtected  []string
	auth           []string
	public         []string
	staticPrefixes []string
	callbackPrefix string
}

// NewClassifier builds a classifier from the routes config.
func NewClassifier(routes config.RoutesConfig) *Classifier {
	return &Classifier{
		admin:          routes.Admin,
		userProtected:  routes.UserProtected,
		auth:           routes.Auth,
		public:         routes.Public,
		staticPrefixes: routes.StaticPrefixes,
		callbackPrefix: routes.OAuthCallbackPrefix,
	}
}

// Classify returns the class for a path. Static wins unconditionally;
// the remaining lists are checked in precedence order.
func (c *Classifier) Classify(path string) Class {
	if c.IsStatic(path) {
		return ClassStatic
	}
	switch {
	case matchesAny(path, c.admin):
		return ClassAdmin
	case matchesAny(path, c.userProtected):
		return ClassUserProtected
	case matchesAny(path, c.auth):
		return ClassAuth
	case matchesAny(path, c.public):
		return ClassPublic
	default:
		return ClassUnclassified
	}
}

// IsStatic reports whether a path is a static asset or internal
// framework route, exempt from the guard entirely.
func (c *Classifier) IsStatic(path string) bool {
	for _, prefix := range c.staticPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, suffix := range imageSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// IsOAuthCallback reports whether a path is the provider redirect
// target, which authenticated users must still be able to reach.
func (c *Classifier) IsOAuthCallback(path string) bool {
	return matches(path, c.callbackPrefix)
}

func matchesAny(path string, entries []string) bool {
	for _, entry := range entries {
		if matches(path, entry) {
			return true
		}
	}
	return false
}

// matches reports whether path equals entry exactly or sits under it as
// a subpath. "/login" matches "/login" and "/login/help" but not
// "/loginx".
func matches(path, entry string) bool {
	return path == entry || strings.HasPrefix(path, entry+"/")
}
