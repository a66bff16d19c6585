package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyFile       = "file"
	KeySlug       = "slug"
	KeyURL        = "url"
	KeyStage      = "stage"
	KeySection    = "section"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyCodec      = "codec"
	KeyWidth      = "width"
	KeyFormat     = "format"
	KeyReloadID   = "reload_id"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Codec(c string) slog.Attr        { return slog.String(KeyCodec, c) }
func Width(w int) slog.Attr           { return slog.Int(KeyWidth, w) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func ReloadID(id string) slog.Attr    { return slog.String(KeyReloadID, id) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
