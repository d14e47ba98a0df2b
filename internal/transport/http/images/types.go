package images

import "imaged/internal/domain/ingest"

const (
	statusStored = "stored"
	statusFailed = "failed"
)

// ItemResponse is one element of the per-item result array returned by
// POST /images.
type ItemResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func toResponses(results []ingest.Result) []ItemResponse {
	responses := make([]ItemResponse, len(results))
	for i, result := range results {
		if result.Stored {
			responses[i] = ItemResponse{
				Status: statusStored,
				Path:   result.Path,
			}
			continue
		}
		responses[i] = ItemResponse{
			Status: statusFailed,
			Reason: string(result.Reason),
			Detail: result.Detail,
		}
	}
	return responses
}
