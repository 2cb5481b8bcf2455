package model

import (
	"time"

	cloudModel "github.com/mattermost/mattermost-cloud/model"
)

// GetMillis returns the current time in milliseconds since the epoch.
func GetMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

func NewID() string {
	return cloudModel.NewID()
}
