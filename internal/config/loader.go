package config

import (
	"fmt"
	"net"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Lookup resolves one configuration key. os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// MapLookup serves keys from m.
func MapLookup(m map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with keys resolved by lookup instead of the environment.
func LoadFrom(lookup Lookup) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// loadStruct recursively populates tagged struct fields.
//
// Tags: env names the key, envAlt a fallback key, default the value used
// when neither is set, required="true" fails instead of defaulting, and
// size="bytes" accepts KB/MB/GB suffixes on integers.
func loadStruct(v reflect.Value, lookup Lookup) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != timeType {
			if err := loadStruct(fieldVal, lookup); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("env")
		if key == "" {
			continue
		}

		value := get(lookup, key)
		if value == "" {
			if alt := field.Tag.Get("envAlt"); alt != "" {
				value = get(lookup, alt)
			}
		}
		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", key)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value, field.Tag.Get("size") == "bytes"); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", key, value, err)
		}
	}

	return nil
}

// get returns the trimmed value for key; unset and blank are the same.
func get(lookup Lookup, key string) string {
	v, _ := lookup(key)
	return strings.TrimSpace(v)
}

func setField(field reflect.Value, value string, bytes bool) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		switch {
		case field.Type() == durationType:
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
		case bytes:
			n, err := parseSize(value)
			if err != nil {
				return err
			}
			field.SetInt(n)
		default:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(n)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		field.Set(reflect.ValueOf(splitList(value)))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var sizeUnits = []struct {
	suffix string
	scale  int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// parseSize reads a byte count such as "104857600", "100MB" or "512kb".
func parseSize(value string) (int64, error) {
	upper := strings.ToUpper(value)
	scale := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(upper, u.suffix) {
			upper = strings.TrimSpace(strings.TrimSuffix(upper, u.suffix))
			scale = u.scale
			break
		}
	}
	n, err := strconv.ParseInt(upper, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size: %w", err)
	}
	return n * scale, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	errs := checkBounds(reflect.ValueOf(c).Elem())

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Session.ReapInterval > c.Session.IdleTimeout {
		errs = append(errs, fmt.Sprintf("SESSION_REAP_INTERVAL (%s) must not exceed SESSION_IDLE_TIMEOUT (%s)",
			c.Session.ReapInterval, c.Session.IdleTimeout))
	}

	// TrustedRealIP accepts a bare address as a single-host range.
	for _, entry := range c.Security.TrustedProxies {
		if _, _, err := net.ParseCIDR(entry); err != nil && net.ParseIP(entry) == nil {
			errs = append(errs, fmt.Sprintf("TRUSTED_PROXIES entry %q is not a valid CIDR or IP", entry))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// checkBounds enforces the min, max and oneof tags and returns one message
// per violation, named by the field's env key.
func checkBounds(v reflect.Value) []string {
	var errs []string
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)

		if field.Type.Kind() == reflect.Struct && field.Type != timeType {
			errs = append(errs, checkBounds(fv)...)
			continue
		}

		key := field.Tag.Get("env")
		if key == "" {
			continue
		}

		switch fv.Kind() {
		case reflect.Int, reflect.Int64:
			isDuration := field.Type == durationType
			if lo, ok := bound(field.Tag.Get("min"), isDuration); ok && fv.Int() < lo {
				errs = append(errs, fmt.Sprintf("%s (%s) must be at least %s", key, show(fv, isDuration), field.Tag.Get("min")))
			}
			if hi, ok := bound(field.Tag.Get("max"), isDuration); ok && fv.Int() > hi {
				errs = append(errs, fmt.Sprintf("%s (%s) must be at most %s", key, show(fv, isDuration), field.Tag.Get("max")))
			}

		case reflect.String:
			allowed := field.Tag.Get("oneof")
			if allowed == "" {
				continue
			}
			options := splitList(allowed)
			if !containsFold(options, fv.String()) {
				errs = append(errs, fmt.Sprintf("%s (%q) must be one of: %s", key, fv.String(), strings.Join(options, ", ")))
			}
		}
	}

	return errs
}

// bound parses a min/max tag; an absent or malformed tag is no bound.
func bound(tag string, isDuration bool) (int64, bool) {
	if tag == "" {
		return 0, false
	}
	if isDuration {
		d, err := time.ParseDuration(tag)
		return int64(d), err == nil
	}
	n, err := strconv.ParseInt(tag, 10, 64)
	return n, err == nil
}

func show(v reflect.Value, isDuration bool) string {
	if isDuration {
		return time.Duration(v.Int()).String()
	}
	return strconv.FormatInt(v.Int(), 10)
}

func containsFold(options []string, s string) bool {
	for _, o := range options {
		if strings.EqualFold(o, s) {
			return true
		}
	}
	return false
}

// String returns a compact representation of the config for logging.
// Proxy ranges are reported by count only.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Session: {MaxFiles: %d, MaxFileSize: %d, ParseWorkers: %d, IdleTimeout: %s, MaxConcurrent: %d}, ",
		c.Session.MaxFiles, c.Session.MaxFileSize, c.Session.ParseWorkers, c.Session.IdleTimeout, c.Session.MaxConcurrent)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ", c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Security: {TrustedProxies: %d, EnableCSP: %v}, ", len(c.Security.TrustedProxies), c.Security.EnableCSP)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
