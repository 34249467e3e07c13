package prompt

import (
	"context"
	_ "embed"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/brandpulse/strategy-cli/internal/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type defaultEntry struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

var (
	defaultsOnce sync.Once
	defaults     map[string]defaultEntry
	defaultsErr  error
)

func loadDefaults() (map[string]defaultEntry, error) {
	defaultsOnce.Do(func() {
		defaults = make(map[string]defaultEntry)
		defaultsErr = yaml.Unmarshal(defaultsYAML, &defaults)
	})
	return defaults, defaultsErr
}

// TemplateStore is the persistence surface the registry reads overrides from.
type TemplateStore interface {
	GetPrompt(ctx context.Context, module string) (*model.PromptTemplate, error)
}

// Registry resolves the effective prompt template for a module.
type Registry struct {
	store TemplateStore
}

// NewRegistry creates a Registry over the given store. A nil store resolves
// embedded defaults only.
func NewRegistry(store TemplateStore) *Registry {
	return &Registry{store: store}
}

// Get returns the effective template for a module: a stored override when
// one exists (Source "database"), otherwise the embedded default (Source
// "default"), otherwise an empty passthrough template. Store errors degrade
// to the default rather than failing the generation.
func (r *Registry) Get(ctx context.Context, module string) (model.PromptTemplate, error) {
	if r.store != nil {
		stored, err := r.store.GetPrompt(ctx, module)
		if err != nil {
			zap.L().Warn("prompt: stored template lookup failed, using default",
				zap.String("module", module),
				zap.Error(err),
			)
		} else if stored != nil {
			stored.Source = model.PromptSourceDatabase
			return *stored, nil
		}
	}

	d, err := loadDefaults()
	if err != nil {
		return model.PromptTemplate{}, eris.Wrap(err, "prompt: load embedded defaults")
	}

	if entry, ok := d[module]; ok {
		return model.PromptTemplate{
			Module:       module,
			SystemPrompt: entry.System,
			UserPrompt:   entry.User,
			Source:       model.PromptSourceDefault,
		}, nil
	}

	// No template anywhere: callers serialize the input data verbatim.
	return model.PromptTemplate{
		Module: module,
		Source: model.PromptSourceDefault,
	}, nil
}

// Modules lists the module names with embedded defaults.
func Modules() []string {
	d, err := loadDefaults()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	return names
}
