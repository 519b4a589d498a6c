package usecase

// State is the orchestrator's position within a run.
type State int32

const (
	StateIdle State = iota
	StateFetchingSources
	StateDeduplicating
	StateEnriching
	StateSummarizing
)

func (s State) String() string {
	switch s {
	case StateFetchingSources:
		return "fetching_sources"
	case StateDeduplicating:
		return "deduplicating"
	case StateEnriching:
		return "enriching"
	case StateSummarizing:
		return "summarizing"
	default:
		return "idle"
	}
}
