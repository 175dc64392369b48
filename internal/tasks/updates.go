package tasks

import "fmt"

// ProgressUpdate represents a progress event during a sync.
//
// Used to send updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchCollection Phase = iota
	FetchRelease
	SkipItem
	Upsert
	Remove
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchCollection:
		return "fetch_collection"
	case FetchRelease:
		return "fetch_release"
	case SkipItem:
		return "skip_item"
	case Upsert:
		return "upsert"
	case Remove:
		return "remove"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchPageUpdate(page, pages int) ProgressUpdate {
	if pages == 0 {
		return ProgressUpdate{
			Phase:   FetchCollection,
			Step:    page,
			Message: fmt.Sprintf("Fetching collection page %d...", page),
		}
	}
	return ProgressUpdate{
		Phase:   FetchCollection,
		Step:    page,
		Total:   pages,
		Message: fmt.Sprintf("[%d/%d] Fetched collection page", page, pages),
	}
}

func fetchReleaseUpdate(instanceID, releaseID int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRelease,
		Message: fmt.Sprintf("Fetching release %d for instance %d...", releaseID, instanceID),
	}
}

func skipItemUpdate(index int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SkipItem,
		Step:    index,
		Message: fmt.Sprintf("✗ item %d skipped: %v", index, err),
	}
}

func upsertUpdate(done, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Upsert,
		Step:    done,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Saved releases", done, total),
	}
}

func removeUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Remove,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Removed %d releases no longer in the collection", count),
	}
}

func completeUpdate(summary any, added, updated, removed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Message: fmt.Sprintf("✓ Sync complete: %d added, %d updated, %d removed", added, updated, removed),
		Data:    summary,
	}
}
