package mailroom

import "encoding/json"

// Newsletter is the content of a bulk send
type Newsletter struct {
	Subject string `json:"subject"`
	Text    string `json:"text"`
	// HTMLTemplate names a template rendered as the HTML alternative.
	HTMLTemplate string `json:"html_template,omitempty"`
}

// DispatchJob is a bulk send handed to the background worker.
// An empty Recipients list means every active subscriber.
type DispatchJob struct {
	Newsletter
	Recipients []string `json:"recipients,omitempty"`
}

func (j *DispatchJob) Marshal() ([]byte, error) {
	return json.Marshal(j)
}

func UnmarshalDispatchJob(data []byte) (*DispatchJob, error) {
	var job DispatchJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// BatchResult is the outcome of one transport call of a bulk send
type BatchResult struct {
	Index int   `json:"index"`
	Size  int   `json:"size"`
	Err   error `json:"-"`
}

// DispatchReport summarizes a bulk send
type DispatchReport struct {
	Total   int           `json:"total"`
	Batches []BatchResult `json:"batches"`
}

// Sent returns the number of recipients in batches that were accepted by the transport.
func (r *DispatchReport) Sent() int {
	n := 0
	for _, b := range r.Batches {
		if b.Err == nil {
			n += b.Size
		}
	}
	return n
}

// Failed returns the number of failed batches.
func (r *DispatchReport) Failed() int {
	n := 0
	for _, b := range r.Batches {
		if b.Err != nil {
			n++
		}
	}
	return n
}
