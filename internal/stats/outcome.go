package stats

import "time"

// UnknownLength marks a response that carried no Content-Length.
const UnknownLength int64 = -1

// Outcome is the classified result of one request attempt.
// Success means a response arrived, whatever its status code.
type Outcome struct {
	Success       bool
	StatusCode    int
	ContentLength int64
	Error         string
	Latency       time.Duration
	WorkerID      int
	Timestamp     time.Time
}

// Succeeded builds the outcome of a request that got a response.
func Succeeded(status int, latency time.Duration, contentLength int64) Outcome {
	return Outcome{
		Success:       true,
		StatusCode:    status,
		ContentLength: contentLength,
		Latency:       latency,
		Timestamp:     time.Now(),
	}
}

// Failed builds the outcome of a request that never produced a response.
func Failed(desc string, latency time.Duration) Outcome {
	return Outcome{
		Error:         desc,
		ContentLength: UnknownLength,
		Latency:       latency,
		Timestamp:     time.Now(),
	}
}

// LengthString renders the content length the way the dashboard shows it.
func (o Outcome) LengthString() string {
	if o.ContentLength < 0 {
		return "unknown"
	}
	return formatInt(o.ContentLength)
}
