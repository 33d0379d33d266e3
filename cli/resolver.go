package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/loreleva/Bbo-functions/log"
)

// resolve returns a [kong.ConfigurationLoader] for YAML configuration files.
// The flag values are read from the mapping under key:
//
//	config:
//	  log-level: debug
//	  log_pretty: false
//	  catalog: ~/functions.yaml
//
// Flag names may use hyphens or underscores. A file that cannot be decoded
// is logged and ignored, so a broken configuration never prevents the
// command line from working. Command-line flags override file values.
func resolve(ctx context.Context, key string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		if err := yaml.NewDecoder(r).DecodeContext(ctx, &doc); err != nil {
			if err != io.EOF {
				log.WarnContext(ctx, "ignoring configuration file",
					slog.Any("error", err))
			}

			return config{}, nil
		}

		values, ok := doc[key].(map[string]any)
		if !ok {
			return config{}, nil
		}

		out := make(config, len(values))
		for name, v := range values {
			out[strings.ReplaceAll(name, "_", "-")] = flagValue(v)
		}

		return out, nil
	}
}

// config implements [kong.Resolver] over a flat map of flag values.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	return nil, nil
}

// flagValue converts a decoded YAML value into a form kong can parse.
// Numbers become strings; sequences become lists of strings.
func flagValue(v any) any {
	switch v := v.(type) {
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = flagValue(e)
		}

		return out
	default:
		return v
	}
}
