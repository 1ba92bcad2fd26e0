package domain

import "time"

type CommandStatus string

const (
	StatusSuccess CommandStatus = "success"
	StatusFailed  CommandStatus = "failed"
)

// DefaultUser identifies command issuers while there is no multi-user support.
const DefaultUser = "default_user"

// CommandEntry is one attempted command. Entries are append-only and never
// mutated after being written to the history log.
//
// Result duplicates Response for compatibility with older dashboard clients.
type CommandEntry struct {
	Cmd            string        `json:"cmd"`
	Status         CommandStatus `json:"status"`
	Timestamp      time.Time     `json:"timestamp"`
	ResponseTimeMs int           `json:"responseTime"`
	User           string        `json:"user"`
	Response       string        `json:"response"`
	Result         string        `json:"result"`
}

// NewCommandEntry stamps an entry with the current UTC time at second
// precision, which keeps the persisted form at "2006-01-02T15:04:05Z".
func NewCommandEntry(cmd string, status CommandStatus, elapsed time.Duration, response string) CommandEntry {
	return CommandEntry{
		Cmd:            cmd,
		Status:         status,
		Timestamp:      time.Now().UTC().Truncate(time.Second),
		ResponseTimeMs: int(elapsed.Milliseconds()),
		User:           DefaultUser,
		Response:       response,
		Result:         response,
	}
}
