package models

// Image is one binary image attached to a draft.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// PostDraft is the post composed once and published to every enabled platform.
type PostDraft struct {
	Content string
	Images  []Image
}

// PostResult is the outcome for exactly one target.
type PostResult struct {
	Platform  PlatformKind `json:"platform"`
	Success   bool         `json:"success"`
	TargetID  string       `json:"targetId,omitempty"`
	MessageID string       `json:"messageId,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Failure builds an unsuccessful result.
func Failure(platform PlatformKind, targetID, msg string) PostResult {
	return PostResult{Platform: platform, TargetID: targetID, Error: msg}
}

// PublishResponse aggregates every target result of one publish call.
type PublishResponse struct {
	Results      []PostResult `json:"results"`
	TotalSuccess int          `json:"totalSuccess"`
	TotalFailure int          `json:"totalFailure"`
}

// NewPublishResponse computes the counts over results.
func NewPublishResponse(results []PostResult) PublishResponse {
	resp := PublishResponse{Results: results}
	if resp.Results == nil {
		resp.Results = []PostResult{}
	}
	for _, r := range resp.Results {
		if r.Success {
			resp.TotalSuccess++
		} else {
			resp.TotalFailure++
		}
	}
	return resp
}
