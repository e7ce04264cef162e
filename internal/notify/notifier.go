// Package notify delivers the success and error toasts raised by session
// operations.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cookai-labs/sessiond/internal/i18n"
	"github.com/cookai-labs/sessiond/pkg/metrics"
)

// Kind distinguishes success toasts from error toasts.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Toast is a single user-facing notification.
type Toast struct {
	Kind    Kind   `json:"kind"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Notifier raises user-facing notifications addressed by catalog key.
type Notifier interface {
	Success(ctx context.Context, key string)
	Error(ctx context.Context, key string)
}

// CatalogNotifier resolves toast keys through the message catalog, logs the
// toast, counts it in metrics, and appends it to the request sink when the
// context carries one.
type CatalogNotifier struct {
	catalog *i18n.Catalog
	lang    string
	log     *slog.Logger
}

var _ Notifier = (*CatalogNotifier)(nil)

// NewCatalogNotifier constructs a notifier for the given catalog and default
// language.
func NewCatalogNotifier(catalog *i18n.Catalog, lang string, log *slog.Logger) *CatalogNotifier {
	if log == nil {
		log = slog.Default()
	}

	return &CatalogNotifier{
		catalog: catalog,
		lang:    lang,
		log:     log,
	}
}

// Success raises a success toast.
func (n *CatalogNotifier) Success(ctx context.Context, key string) {
	n.deliver(ctx, KindSuccess, key)
}

// Error raises an error toast.
func (n *CatalogNotifier) Error(ctx context.Context, key string) {
	n.deliver(ctx, KindError, key)
}

func (n *CatalogNotifier) deliver(ctx context.Context, kind Kind, key string) {
	lang := n.lang
	if requested := LanguageFromContext(ctx); requested != "" {
		lang = requested
	}

	message := n.catalog.Translator(lang).T(key)
	toast := Toast{Kind: kind, Key: key, Message: message}

	level := slog.LevelInfo
	if kind == KindError {
		level = slog.LevelWarn
	}

	n.log.Log(ctx, level, "toast raised",
		slog.String("kind", string(kind)),
		slog.String("key", key),
		slog.String("message", message),
	)

	metrics.RecordNotification(string(kind), key)

	if sink := sinkFromContext(ctx); sink != nil {
		sink.append(toast)
	}
}

type sinkKey struct{}

type languageKey struct{}

// Sink collects the toasts raised while serving one request.
type Sink struct {
	mu     sync.Mutex
	toasts []Toast
}

// WithSink returns a context carrying a fresh toast sink plus the sink
// itself.
func WithSink(ctx context.Context) (context.Context, *Sink) {
	sink := &Sink{}
	return context.WithValue(ctx, sinkKey{}, sink), sink
}

// WithLanguage returns a context that requests toasts in the given language.
func WithLanguage(ctx context.Context, lang string) context.Context {
	if lang == "" {
		return ctx
	}

	return context.WithValue(ctx, languageKey{}, lang)
}

// LanguageFromContext returns the requested toast language, if any.
func LanguageFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(languageKey{}).(string); ok {
		return lang
	}

	return ""
}

// Toasts returns the collected toasts in delivery order.
func (s *Sink) Toasts() []Toast {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collected := make([]Toast, len(s.toasts))
	copy(collected, s.toasts)
	return collected
}

func (s *Sink) append(toast Toast) {
	s.mu.Lock()
	s.toasts = append(s.toasts, toast)
	s.mu.Unlock()
}

func sinkFromContext(ctx context.Context) *Sink {
	if sink, ok := ctx.Value(sinkKey{}).(*Sink); ok {
		return sink
	}

	return nil
}
