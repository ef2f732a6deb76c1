package uploads

// State tracks where a submission is in the pipeline.
type State string

const (
	StateIdle            State = "idle"
	StateUploadingImages State = "uploading_images"
	StateWritingMetadata State = "writing_metadata"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Progress is a point-in-time snapshot of the running submission.
type Progress struct {
	State      State  `json:"state"`
	ItemID     string `json:"item_id,omitempty"`
	ImageIndex int    `json:"image_index"`
	ImageCount int    `json:"image_count"`
}
