package generator

// UsageTracker records which questions have already been placed into a
// variant during the current batch, per module. One tracker serves exactly
// one language; the orchestrator creates a fresh tracker per language and
// discards it when the batch ends. Only the sampler mutates it.
type UsageTracker struct {
	used map[string]map[string]struct{}
}

func NewUsageTracker() *UsageTracker {
	return &UsageTracker{used: map[string]map[string]struct{}{}}
}

func (t *UsageTracker) isUsed(moduleID, questionText string) bool {
	_, ok := t.used[moduleID][questionText]
	return ok
}

func (t *UsageTracker) markUsed(moduleID, questionText string) {
	if t.used[moduleID] == nil {
		t.used[moduleID] = map[string]struct{}{}
	}
	t.used[moduleID][questionText] = struct{}{}
}

func (t *UsageTracker) usedCount(moduleID string) int {
	return len(t.used[moduleID])
}

// reset starts a new rotation pass for one module once its whole pool has
// been consumed.
func (t *UsageTracker) reset(moduleID string) {
	delete(t.used, moduleID)
}
