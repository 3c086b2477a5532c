package ports

type HauntingMetrics interface {
	RecordMutation(applied bool)
	RecordExorcism(kind string, success bool, reason string)
	RecordDispatchFailure(effectID string)
	RecordPersistence(outcome string)
	RecordEnding(ending string)
}
