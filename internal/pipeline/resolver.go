package pipeline

// ModelResolver picks the model id for a named stage: an explicit per-stage
// override wins over the pipeline default. Pure; consulted fresh before each
// stage is constructed.
type ModelResolver struct {
	overrides map[string]string
	fallback  string
}

func NewModelResolver(overrides map[string]string, fallback string) ModelResolver {
	return ModelResolver{overrides: overrides, fallback: fallback}
}

func (r ModelResolver) Resolve(stage string) string {
	if model, ok := r.overrides[stage]; ok && model != "" {
		return model
	}
	return r.fallback
}
