package ports

// EffectParams carries per-call effect tuning such as volume or level.
type EffectParams map[string]any

// EffectCollaborator is implemented by the visual, audio and notification
// subsystems. Start and Stop must tolerate repeated calls with the same id.
type EffectCollaborator interface {
	Start(effectID string, params EffectParams) error
	Stop(effectID string) error
	TriggerOnce(effectID string, params EffectParams) error
}
