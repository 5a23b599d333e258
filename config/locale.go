package config

import "time"

// LocaleConfig controls locale-prefix resolution for incoming requests.
type LocaleConfig struct {
	// Supported is the closed set of locale segments.
	Supported []string `env:"LOCALES" envDefault:"en,ar" envSeparator:","`

	// Default is the locale used when neither the path nor the locale
	// cookie determines one.
	Default string `env:"LOCALE_DEFAULT" envDefault:"en"`

	// CookieName is the plain cookie persisting the last resolved locale.
	CookieName string `env:"LOCALE_COOKIE" envDefault:"NEXT_LOCALE"`

	// CookieMaxAge is how long the locale cookie lives.
	CookieMaxAge time.Duration `env:"LOCALE_COOKIE_MAX_AGE" envDefault:"8760h"`
}

// Sanitize applies guardrails to locale configuration values.
func (l *LocaleConfig) Sanitize() {
	if len(l.Supported) == 0 {
		l.Supported = []string{"en", "ar"}
	}
	if !l.IsSupported(l.Default) {
		l.Default = l.Supported[0]
	}
	if l.CookieName == "" {
		l.CookieName = "NEXT_LOCALE"
	}
	if l.CookieMaxAge <= 0 {
		l.CookieMaxAge = 8760 * time.Hour
	}
}

// IsSupported reports whether the given segment is a configured locale.
func (l *LocaleConfig) IsSupported(locale string) bool {
	for _, s := range l.Supported {
		if s == locale {
			return true
		}
	}
	return false
}
