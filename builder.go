package goSession

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/i18n"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/storage"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Client]. It is single use.
type Builder struct {
	config Config

	kv       storage.KV
	redis    redis.UniversalClient
	filePath string
	filePass string

	state      guard.StateContainer
	navigator  guard.Navigator
	sink       notify.Sink
	translator i18n.Translator
	logger     *slog.Logger
	clock      clockwork.Clock
	base       http.RoundTripper

	built bool
}

// New returns a builder over [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage persists the credential in kv. At most one of WithStorage,
// WithRedis and WithSealedFile may be used; without any the credential
// lives in memory.
func (b *Builder) WithStorage(kv storage.KV) *Builder {
	b.kv = kv
	return b
}

// WithRedis persists the credential in redis under Token.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSealedFile persists the credential in an encrypted file.
func (b *Builder) WithSealedFile(path, passphrase string) *Builder {
	b.filePath = path
	b.filePass = passphrase
	return b
}

// WithStateContainer receives the authenticated flag. Defaults to a [MemoryState].
func (b *Builder) WithStateContainer(s guard.StateContainer) *Builder {
	b.state = s
	return b
}

func (b *Builder) WithNavigator(n guard.Navigator) *Builder {
	b.navigator = n
	return b
}

// WithNotificationSink sets where user-facing notifications go. Without one
// they go to [notify.Default] at the time they are sent.
func (b *Builder) WithNotificationSink(s notify.Sink) *Builder {
	b.sink = s
	return b
}

func (b *Builder) WithTranslator(t i18n.Translator) *Builder {
	b.translator = t
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) WithClock(c clockwork.Clock) *Builder {
	b.clock = c
	return b
}

// WithTransport sets the RoundTripper under the pipeline.
func (b *Builder) WithTransport(rt http.RoundTripper) *Builder {
	b.base = rt
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kv, err := b.storage(cfg)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(logging.Wrap(slog.Default().Handler(), cfg.Service.Name, cfg.Service.Version))
	}
	clock := b.clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	translator := b.translator
	if translator == nil {
		c, err := i18n.New()
		if err != nil {
			return nil, err
		}
		translator = c
	}
	state := b.state
	if state == nil {
		state = &MemoryState{}
	}

	c, err := newClient(clientDeps{
		config:     cfg,
		kv:         kv,
		state:      state,
		navigator:  b.navigator,
		sink:       b.sink,
		translator: withFallbackLanguage(translator, cfg.Language),
		logger:     logger,
		clock:      clock,
		base:       b.base,
	})
	if err != nil {
		return nil, err
	}

	b.built = true

	return c, nil
}

func (b *Builder) storage(cfg Config) (storage.KV, error) {
	n := 0
	if b.kv != nil {
		n++
	}
	if b.redis != nil {
		n++
	}
	if b.filePath != "" {
		n++
	}
	if n > 1 {
		return nil, errors.New("only one credential storage may be configured")
	}

	switch {
	case b.kv != nil:
		return b.kv, nil
	case b.redis != nil:
		return storage.NewRedis(b.redis, cfg.Token.RedisPrefix, cfg.Token.RedisTTL), nil
	case b.filePath != "":
		return storage.NewFile(b.filePath, b.filePass, storage.DefaultSealConfig())
	default:
		return storage.NewMemory(), nil
	}
}

func withFallbackLanguage(t i18n.Translator, lang string) i18n.Translator {
	if lang == "" {
		return t
	}
	return i18n.Func(func(key, requested string) string {
		if requested == "" {
			requested = lang
		}
		return t.Translate(key, requested)
	})
}
